// Package pipeline sequences the fetch, normalize, and load stages for a
// single run.
package pipeline

import (
	"context"

	"profpipe/internal/logger"
	"profpipe/internal/models"
	"profpipe/internal/report"
)

// State names the stage a run ended in.
type State string

// Run states, in order of progression.
const (
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateLoading     State = "loading"
	StateSkipped     State = "skipped"
	StateDone        State = "done"
)

// Extractor produces raw records from a source URL.
type Extractor interface {
	Fetch(url string) ([]models.RawRecord, error)
}

// Normalizer converts raw records into canonical rows.
type Normalizer interface {
	Normalize(batch []models.RawRecord) ([]models.Record, error)
}

// Loader writes a batch to the destination table.
type Loader interface {
	Load(ctx context.Context, batch []models.Record, columns []string, table string) (int64, error)
}

// Result reports what a run did. FetchErr and NormalizeErr record upstream
// failures that were absorbed into an empty batch, so "no data on the page"
// and "stage failed" stay distinguishable without reading log text.
type Result struct {
	State        State
	RawRecords   int
	Normalized   int
	RowsInserted int64
	FetchErr     error
	NormalizeErr error
}

// Pipeline orchestrates one run over injected stages.
type Pipeline struct {
	extractor  Extractor
	normalizer Normalizer
	loader     Loader
	columns    []string
	logger     *logger.Logger
}

// New creates a pipeline. columns is the canonical column order handed to
// the loader and the report.
func New(ex Extractor, n Normalizer, l Loader, columns []string, log *logger.Logger) *Pipeline {
	return &Pipeline{
		extractor:  ex,
		normalizer: n,
		loader:     l,
		columns:    columns,
		logger:     log,
	}
}

// Run executes one fetch-normalize-load pass. Fetch and normalize failures
// degrade to an empty batch and a Skipped result; only a load failure is
// returned as the run's error.
func (p *Pipeline) Run(ctx context.Context, url, table string) (Result, error) {
	res := Result{State: StateFetching}

	p.logger.Info("fetching source data", "url", url)

	raw, err := p.extractor.Fetch(url)
	if err != nil {
		p.logger.Error("fetch stage failed, continuing with empty batch", "error", err)
		res.FetchErr = err
		raw = nil
	}

	res.RawRecords = len(raw)
	res.State = StateNormalizing

	batch, err := p.normalizer.Normalize(raw)
	if err != nil {
		p.logger.Error("normalize stage failed, continuing with empty batch", "error", err)
		res.NormalizeErr = err
		batch = nil
	}

	res.Normalized = len(batch)

	if dropped := len(raw) - len(batch); dropped > 0 && res.NormalizeErr == nil {
		p.logger.Warn("dropped incomplete records", "dropped", dropped, "kept", len(batch))
	}

	if len(batch) == 0 {
		res.State = StateSkipped
		p.logger.Warn("no data to process")

		return res, nil
	}

	p.logger.Info("processed data:\n" + report.Table(p.columns, batch))

	res.State = StateLoading

	rows, err := p.loader.Load(ctx, batch, p.columns, table)
	if err != nil {
		p.logger.Error("load stage failed", "error", err)

		return res, err
	}

	res.RowsInserted = rows
	res.State = StateDone

	p.logger.Info("data inserted successfully", "table", table, "rows", rows)

	return res, nil
}
