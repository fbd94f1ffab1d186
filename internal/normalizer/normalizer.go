// Package normalizer renames the source's short field codes to their
// canonical column names and drops rows that arrive incomplete.
package normalizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"profpipe/internal/models"
)

// Normalization errors.
var (
	ErrNormalize      = errors.New("normalization failed")
	ErrNonScalarValue = errors.New("non-scalar field value")
)

// renameTable maps the page's short codes to canonical column names.
var renameTable = map[string]string{
	"i": "ID",
	"n": "Nombre",
	"a": "Apellido",
	"d": "Departamento/Facultad",
	"m": "# de calif.",
	"c": "Promedio",
}

// columns is the canonical column order used by the destination table.
var columns = []string{
	"ID",
	"Nombre",
	"Apellido",
	"Departamento/Facultad",
	"# de calif.",
	"Promedio",
}

// Columns returns the canonical column order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)

	return out
}

// Normalizer converts raw records into canonical rows.
type Normalizer struct{}

// NewNormalizer creates a new normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize renames every record's fields and drops any record with a
// missing, null, or empty canonical field. Survivors keep their relative
// order. A structurally malformed value (nested object or array) aborts the
// whole batch: no partial output.
func (n *Normalizer) Normalize(batch []models.RawRecord) ([]models.Record, error) {
	out := make([]models.Record, 0, len(batch))

	for i, raw := range batch {
		rec := make(models.Record, len(columns))
		complete := true

		for code, name := range renameTable {
			value, ok := raw[code]
			if !ok || value == nil {
				complete = false

				break
			}

			s, err := scalarString(value)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d field %q: %v", ErrNormalize, i, code, err)
			}

			if strings.TrimSpace(s) == "" {
				complete = false

				break
			}

			rec[name] = s
		}

		if complete {
			out = append(out, rec)
		}
	}

	return out, nil
}

func scalarString(value any) (string, error) {
	switch t := value.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrNonScalarValue, value)
	}
}
