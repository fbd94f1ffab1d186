// Package monitor reports run outcomes to a Healthchecks-style endpoint.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"profpipe/internal/logger"
)

// ErrPing is returned when the monitoring endpoint could not be reached or
// rejected the ping. Pings are best-effort; callers log this and move on.
var ErrPing = errors.New("monitoring ping failed")

// Pinger sends exactly one success or failure signal per run.
type Pinger struct {
	client  *http.Client
	baseURL string
	runID   string
	logger  *logger.Logger
}

// NewPinger creates a pinger for baseURL. An empty baseURL disables pings.
func NewPinger(baseURL, runID string, timeout time.Duration, log *logger.Logger) *Pinger {
	return &Pinger{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		runID:   runID,
		logger:  log,
	}
}

// Success signals a clean run.
func (p *Pinger) Success(ctx context.Context) error {
	return p.ping(ctx, p.baseURL)
}

// Failure signals a failed run via the endpoint's /fail suffix.
func (p *Pinger) Failure(ctx context.Context) error {
	return p.ping(ctx, p.baseURL+"/fail")
}

func (p *Pinger) ping(ctx context.Context, target string) error {
	if p.baseURL == "" {
		p.logger.Debug("monitoring disabled, skipping ping")

		return nil
	}

	if p.runID != "" {
		target += "?rid=" + url.QueryEscape(p.runID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPing, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPing, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrPing, resp.StatusCode)
	}

	return nil
}
