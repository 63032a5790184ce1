package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/jobsift/jobsift/internal/clients/dedup"
	"github.com/jobsift/jobsift/internal/clients/mongodb"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/services"
	"github.com/jobsift/jobsift/internal/sources"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

func runOnce(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) {

	feeds, err := sources.Discover(cfg.Ingest.DataDir)
	if err != nil {
		log.Errorf("can't discover sources: %v", err)
		return
	}

	stats, err := p.Run(ctx, lo.Map(feeds, func(s *sources.FileSource, _ int) pipeline.Source { return s }))
	if err != nil {
		log.Errorf("ingestion run failed: %v", err)
		return
	}

	log.Infof("run complete: files=%d items=%d duplicates=%d failures=%d",
		stats.FilesProcessed, stats.ItemsProcessed, stats.Duplicates, stats.Failures)
}

func main() {

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.MetricsAddr)

	documents, err := mongodb.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("can't connect to document store: %v", err)
	}
	defer func() { _ = documents.Close(context.Background()) }()

	bus := EventBus.New()

	monitor, err := services.NewIngestMonitor(bus)
	if err != nil {
		log.Fatalf("can't create ingest monitor: %v", err)
	}
	defer monitor.Stop()

	opts := pipeline.Options{
		Collection:         cfg.Mongo.Collection,
		BatchSize:          cfg.Ingest.BatchSize,
		GateOnDedup:        cfg.Ingest.GateOnDedup,
		KeepRawData:        cfg.Ingest.KeepRawData,
		MaxWritesPerSecond: cfg.Ingest.MaxWritesPerSecond,
	}

	// A dead dedup store degrades the run instead of blocking it: marking
	// is skipped and persistence falls back on the unique index.
	var p *pipeline.Pipeline
	seen, err := dedup.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warnf("dedup store unavailable, continuing without it: %v", err)
		p = pipeline.New(documents, nil, bus, opts)
	} else {
		defer seen.Close()
		p = pipeline.New(documents, seen, bus, opts)
	}

	if cfg.Ingest.Schedule == "" {
		runOnce(ctx, cfg, p)
		return
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Ingest.Schedule, func() {
		runOnce(ctx, cfg, p)
	})
	if err != nil {
		log.Fatalf("invalid ingest schedule %q: %v", cfg.Ingest.Schedule, err)
	}

	log.Infof("ingestion scheduled: %s", cfg.Ingest.Schedule)
	scheduler.Start()

	<-ctx.Done()

	log.Info("Shutting down...")
	<-scheduler.Stop().Done()
	log.Info("Scheduler stopped.")
}
