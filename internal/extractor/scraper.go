package extractor

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"profpipe/internal/logger"
)

// ErrUnexpectedStatusCode is returned when the source responds outside 2xx.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxBodyKb = 4096

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper performs the single page fetch. One attempt per run; the caller
// decides what a failure means.
type Scraper struct {
	client    *http.Client
	maxBodyKb int
	logger    *logger.Logger
}

// NewScraper creates a scraper with the given request timeout and body cap.
func NewScraper(timeout time.Duration, maxBodyKb int, log *logger.Logger) *Scraper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if maxBodyKb <= 0 {
		maxBodyKb = defaultMaxBodyKb
	}

	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
		},
		maxBodyKb: maxBodyKb,
		logger:    log,
	}
}

// Scrape fetches url and returns the response body as a string. The body
// read is capped at maxBodyKb kilobytes; a page that exceeds the cap is
// truncated with a warning, since the cut can land mid-fragment and show up
// downstream as a parse failure.
func (s *Scraper) Scrape(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// Read one byte past the cap to tell "fits exactly" from "truncated".
	limit := int64(s.maxBodyKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		s.logger.Warn("response body truncated at read cap, source page may have grown",
			"url", url, "max_body_kb", s.maxBodyKb)
		body = body[:limit]
	}

	return string(body), nil
}
