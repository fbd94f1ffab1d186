package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestLineFormat(t *testing.T) {
	tests := []struct {
		name    string
		log     func(l *Logger)
		pattern string
	}{
		{
			name:    "info line",
			log:     func(l *Logger) { l.Info("task started") },
			pattern: `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - INFO - task started$`,
		},
		{
			name:    "warn maps to WARNING",
			log:     func(l *Logger) { l.Warn("no data to process") },
			pattern: `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - WARNING - no data to process$`,
		},
		{
			name:    "error line",
			log:     func(l *Logger) { l.Error("boom") },
			pattern: `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - ERROR - boom$`,
		},
		{
			name:    "attrs appended as key=value",
			log:     func(l *Logger) { l.Info("inserted", "rows", 3) },
			pattern: ` - INFO - inserted rows=3$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr, file bytes.Buffer

			log := NewWithWriters(&stderr, &file, "info")
			tt.log(log)

			line := strings.TrimRight(file.String(), "\n")

			matched, err := regexp.MatchString(tt.pattern, line)
			if err != nil {
				t.Fatalf("bad pattern: %v", err)
			}

			if !matched {
				t.Errorf("line %q does not match %q", line, tt.pattern)
			}

			if stderr.Len() == 0 {
				t.Error("expected stderr sink to receive the record too")
			}
		})
	}
}

func TestWithAttrsReachFileSink(t *testing.T) {
	var stderr, file bytes.Buffer

	log := NewWithWriters(&stderr, &file, "info").With("run_id", "abc-123")
	log.Info("starting")

	if !strings.Contains(file.String(), "run_id=abc-123") {
		t.Errorf("file line %q missing run_id attribute", file.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var stderr, file bytes.Buffer

	log := NewWithWriters(&stderr, &file, "warn")
	log.Info("quiet")
	log.Warn("loud")

	out := file.String()
	if strings.Contains(out, "quiet") {
		t.Error("info record should be filtered at warn level")
	}

	if !strings.Contains(out, "loud") {
		t.Error("warn record should pass at warn level")
	}
}

func TestSetupMissingDirFallsBack(t *testing.T) {
	log, closeLog := Setup("/nonexistent-dir/pipeline.log", "info")
	defer func() {
		_ = closeLog()
	}()

	if log == nil {
		t.Fatal("expected a usable logger despite the unopenable file")
	}

	// Must not panic with the stderr-only fallback.
	log.Info("still alive")
}
