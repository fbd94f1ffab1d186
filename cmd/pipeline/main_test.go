package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profpipe/internal/config"
	"profpipe/internal/logger"
	"profpipe/internal/models"
	"profpipe/internal/monitor"
)

// sourcePage carries three complete records and one missing its "d" field.
const sourcePage = `<!DOCTYPE html>
<html><head>
<script type="text/javascript">
var data = [{"i": "1", "n": "Ana", "a": "Lopez", "d": "Math", "m": "10", "c": "9.5"},{"i": "2", "n": "Luis", "a": "Diaz", "m": "4", "c": "8.1"},{"i": "3", "n": "Mar", "a": "Gil", "d": "Chem", "m": "7", "c": "9.0"},{"i": "4", "n": "Eva", "a": "Ruiz", "d": "Bio", "m": "2", "c": "7.8"}];
</script>
</head><body></body></html>`

type recordingLoader struct {
	err     error
	calls   int
	batch   []models.Record
	table   string
	columns []string
}

func (r *recordingLoader) Load(_ context.Context, batch []models.Record, columns []string, table string) (int64, error) {
	r.calls++
	r.batch = batch
	r.columns = columns
	r.table = table

	if r.err != nil {
		return 0, r.err
	}

	return int64(len(batch)), nil
}

type pingRecorder struct {
	srv   *httptest.Server
	paths []string
	rids  []string
}

func newPingRecorder() *pingRecorder {
	rec := &pingRecorder{}
	rec.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.paths = append(rec.paths, r.URL.Path)
		rec.rids = append(rec.rids, r.URL.Query().Get("rid"))
		w.WriteHeader(http.StatusOK)
	}))

	return rec
}

func testLogger() *logger.Logger {
	return logger.NewWithWriters(io.Discard, io.Discard, "error")
}

func testConfig(sourceURL string) *config.Config {
	return &config.Config{
		Source:   config.SourceConfig{URL: sourceURL, Table: "profesores"},
		Database: config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "ratings", User: "pipeline", TimeoutSec: 1},
		Logging:  config.LoggingConfig{Level: "error"},
		HTTP:     config.HTTPConfig{TimeoutSec: 5, MaxBodyKb: 64},
	}
}

func TestRunFullFlow(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sourcePage)
	}))
	defer source.Close()

	pings := newPingRecorder()
	defer pings.srv.Close()

	log := testLogger()
	ld := &recordingLoader{}
	pinger := monitor.NewPinger(pings.srv.URL+"/check", "run-e2e", time.Second, log)

	code := run(context.Background(), testConfig(source.URL), log, pinger, ld)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if ld.calls != 1 {
		t.Fatalf("loader called %d times, want 1", ld.calls)
	}

	if len(ld.batch) != 3 {
		t.Errorf("loaded %d records, want 3 (incomplete record dropped)", len(ld.batch))
	}

	for i, wantID := range []string{"1", "3", "4"} {
		if ld.batch[i]["ID"] != wantID {
			t.Errorf("record %d has ID %q, want %q", i, ld.batch[i]["ID"], wantID)
		}
	}

	if ld.table != "profesores" {
		t.Errorf("loader got table %q, want %q", ld.table, "profesores")
	}

	if len(pings.paths) != 1 {
		t.Fatalf("got %d pings, want exactly 1: %v", len(pings.paths), pings.paths)
	}

	if pings.paths[0] != "/check" {
		t.Errorf("ping path = %q, want %q", pings.paths[0], "/check")
	}

	if pings.rids[0] != "run-e2e" {
		t.Errorf("ping rid = %q, want %q", pings.rids[0], "run-e2e")
	}
}

func TestRunLoadFailurePingsFailure(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sourcePage)
	}))
	defer source.Close()

	pings := newPingRecorder()
	defer pings.srv.Close()

	log := testLogger()
	ld := &recordingLoader{err: errors.New("database load failed: connect")}
	pinger := monitor.NewPinger(pings.srv.URL+"/check", "run-e2e", time.Second, log)

	code := run(context.Background(), testConfig(source.URL), log, pinger, ld)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if len(pings.paths) != 1 {
		t.Fatalf("got %d pings, want exactly 1: %v", len(pings.paths), pings.paths)
	}

	if pings.paths[0] != "/check/fail" {
		t.Errorf("ping path = %q, want %q", pings.paths[0], "/check/fail")
	}
}

func TestRunNoDataStillSucceeds(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html><body>layout changed</body></html>")
	}))
	defer source.Close()

	pings := newPingRecorder()
	defer pings.srv.Close()

	log := testLogger()
	ld := &recordingLoader{}
	pinger := monitor.NewPinger(pings.srv.URL+"/check", "run-e2e", time.Second, log)

	code := run(context.Background(), testConfig(source.URL), log, pinger, ld)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if ld.calls != 0 {
		t.Errorf("loader called %d times, want 0 on an empty batch", ld.calls)
	}

	if len(pings.paths) != 1 || pings.paths[0] != "/check" {
		t.Errorf("expected exactly one success ping, got %v", pings.paths)
	}
}
