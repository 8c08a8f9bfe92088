// ocrsynth-worker consumes ocrsynth:synthesize tasks from Redis and writes the
// synthesized PDFs.
//
// Configuration comes from the environment (and .env when present):
//
//	REDIS_ADDR              Redis address (default localhost:6379)
//	WORKER_CONCURRENCY      Parallel tasks (default 4)
//	WORKER_QUEUE            Queue name (default "default")
//	WORKER_TIMEOUT_SECONDS  Per-task timeout (default 300)
//	OCRSYNTH_CONFIG         Optional YAML file with fonts and font_map
package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/gardar/ocrsynth/internal/config"
	"github.com/gardar/ocrsynth/internal/input"
	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/jobs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	wcfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Default()
	if wcfg.ConfigPath != "" {
		if cfg, err = config.Load(wcfg.ConfigPath); err != nil {
			log.Fatalf("Failed to load %s: %v", wcfg.ConfigPath, err)
		}
	}

	store, err := cfg.Fonts.Store()
	if err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}

	logger := logging.New(os.Stdout, "worker")
	handler := &jobs.Handler{
		Fonts:   store,
		Oracle:  fonts.NewMeasurer(store),
		Input:   input.Options{FontFamily: cfg.FontFamily},
		Timeout: wcfg.Timeout,
		Logger:  logger,
	}

	logger.Info("worker starting", "redis", wcfg.RedisAddr, "queue", wcfg.Queue, "concurrency", wcfg.Concurrency)
	srv := jobs.NewServer(asynq.RedisClientOpt{Addr: wcfg.RedisAddr}, wcfg.Queue, wcfg.Concurrency, logger)

	// Run blocks until SIGTERM or SIGINT and then shuts down gracefully.
	if err := srv.Run(jobs.NewServeMux(handler)); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
