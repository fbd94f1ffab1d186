// Package extractor fetches the source page and pulls the embedded JSON
// record fragment out of its inline script blocks.
package extractor

import (
	"errors"
	"fmt"

	"profpipe/internal/logger"
	"profpipe/internal/models"
)

// Stage errors; callers distinguish network trouble from a page whose
// structure no longer matches.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrExtraction = errors.New("extraction failed")
)

// Extractor turns a source URL into raw records.
type Extractor struct {
	scraper *Scraper
	logger  *logger.Logger
}

// New creates an extractor using the given scraper.
func New(scraper *Scraper, log *logger.Logger) *Extractor {
	return &Extractor{
		scraper: scraper,
		logger:  log,
	}
}

// Fetch downloads url and returns the decoded raw records from its embedded
// fragment. Transport and status failures wrap ErrFetch; a missing or
// unparsable fragment wraps ErrExtraction.
func (e *Extractor) Fetch(url string) ([]models.RawRecord, error) {
	e.logger.Debug("fetching source page", "url", url)

	html, err := e.scraper.Scrape(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	fragment, err := LocateIsland(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	records, err := ParseIsland(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	e.logger.Debug("extracted raw records", "count", len(records))

	return records, nil
}
