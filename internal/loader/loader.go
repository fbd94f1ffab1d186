// Package loader writes normalized batches into the destination table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"profpipe/internal/config"
	"profpipe/internal/logger"
	"profpipe/internal/models"
)

// Load errors.
var (
	ErrLoad      = errors.New("database load failed")
	ErrNoColumns = errors.New("no columns to insert")
)

// Loader owns the destination connection settings. Each Load call opens its
// own connection and closes it before returning; the job runs once per
// process, so there is nothing to pool.
type Loader struct {
	cfg    config.DatabaseConfig
	logger *logger.Logger
}

// New creates a loader for the given database.
func New(cfg config.DatabaseConfig, log *logger.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		logger: log,
	}
}

// Load inserts the whole batch with a single parameterized multi-row INSERT
// and returns the number of rows the server reports inserted. An empty batch
// is a no-op.
func (l *Loader) Load(ctx context.Context, batch []models.Record, columns []string, table string) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	if len(columns) == 0 {
		return 0, fmt.Errorf("%w: table %q", ErrNoColumns, table)
	}

	sql, args := BuildInsert(table, columns, batch)

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout())
	defer cancel()

	conn, err := pgx.Connect(ctx, l.cfg.DSN())
	if err != nil {
		return 0, fmt.Errorf("%w: connect: %v", ErrLoad, err)
	}
	defer conn.Close(context.Background())

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %q: %v", ErrLoad, table, err)
	}

	rows := tag.RowsAffected()
	l.logger.Debug("insert executed", "table", table, "rows", rows)

	return rows, nil
}

// BuildInsert renders the multi-row INSERT statement and its argument list.
// Identifiers are quoted (canonical column names contain spaces and
// punctuation); values travel only as placeholders.
func BuildInsert(table string, columns []string, batch []models.Record) (string, []any) {
	var sb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdent(table))
	sb.WriteString(" (")

	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(quoteIdent(col))
	}

	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(batch)*len(columns))

	for r, rec := range batch {
		if r > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString("(")

		for c, col := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}

			args = append(args, rec[col])
			sb.WriteString(fmt.Sprintf("$%d", len(args)))
		}

		sb.WriteString(")")
	}

	return sb.String(), args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
