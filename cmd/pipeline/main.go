// Command pipeline runs one fetch-normalize-load pass of the professor
// ratings ETL job and pings the monitoring endpoint with the outcome. It is
// meant to be invoked on a schedule (cron, systemd timer).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"profpipe/internal/config"
	"profpipe/internal/extractor"
	"profpipe/internal/loader"
	"profpipe/internal/logger"
	"profpipe/internal/monitor"
	"profpipe/internal/normalizer"
	"profpipe/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Secrets may live in a local .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log, closeLog := logger.Setup(cfg.Logging.File, cfg.Logging.Level)

	runID := uuid.NewString()
	log = log.With("run_id", runID)

	ctx := context.Background()
	pinger := monitor.NewPinger(cfg.Monitor.PingURL, runID, cfg.Monitor.Timeout(), log)

	code := run(ctx, cfg, log, pinger, loader.New(cfg.Database, log))

	_ = closeLog()
	os.Exit(code)
}

// run executes one pipeline pass and reports the outcome through pinger:
// success on clean completion, failure otherwise, exactly one ping either
// way. It returns the process exit code so main tears down once.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger, pinger *monitor.Pinger, ld pipeline.Loader) int {
	log.Info("starting the cron job task", "source", cfg.Source.URL, "table", cfg.Source.Table)

	runErr := runOnce(ctx, cfg, log, ld)
	if runErr != nil {
		log.Error("run failed", "error", runErr)

		if err := pinger.Failure(ctx); err != nil {
			log.Error("failure ping not delivered", "error", err)
		}

		return 1
	}

	if err := pinger.Success(ctx); err != nil {
		log.Error("success ping not delivered", "error", err)
	} else {
		log.Info("monitoring ping successful")
	}

	return 0
}

// runOnce wires the stages and executes the pipeline, converting any escaped
// panic into an error so the caller always gets to send its one ping.
func runOnce(ctx context.Context, cfg *config.Config, log *logger.Logger, ld pipeline.Loader) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()

	scraper := extractor.NewScraper(cfg.HTTP.Timeout(), cfg.HTTP.MaxBodyKb, log)
	ex := extractor.New(scraper, log)
	norm := normalizer.NewNormalizer()

	p := pipeline.New(ex, norm, ld, normalizer.Columns(), log)

	res, err := p.Run(ctx, cfg.Source.URL, cfg.Source.Table)
	if err != nil {
		return err
	}

	log.Info("run finished",
		"state", string(res.State),
		"raw_records", res.RawRecords,
		"normalized", res.Normalized,
		"rows_inserted", res.RowsInserted,
	)

	return nil
}
