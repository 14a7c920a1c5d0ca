package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	gradingservice "intelligrade/contexts/assessment-core/grading-service"
	"intelligrade/contexts/assessment-core/grading-service/adapters/extract"
	"intelligrade/contexts/assessment-core/grading-service/adapters/grader"
	gradingpostgres "intelligrade/contexts/assessment-core/grading-service/adapters/postgres"
	gradingworkers "intelligrade/contexts/assessment-core/grading-service/application/workers"
	rubricservice "intelligrade/contexts/assessment-core/rubric-service"
	rubricpostgres "intelligrade/contexts/assessment-core/rubric-service/adapters/postgres"
	rubricworkers "intelligrade/contexts/assessment-core/rubric-service/application/workers"
	"intelligrade/internal/platform/config"
	"intelligrade/internal/platform/db"
	"intelligrade/internal/platform/httpserver"
	"intelligrade/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	rubricRelay  rubricworkers.OutboxRelay
	gradingRelay gradingworkers.OutboxRelay
	projection   gradingworkers.RubricProjectionConsumer
	relayEnabled bool
	projEnabled  bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	rubricRepo := rubricpostgres.NewRepository(pg.DB, logger)
	rubricModule := rubricservice.NewModule(rubricservice.Dependencies{
		Repository: rubricRepo,
		Outbox:     rubricRepo,
		Clock:      rubricpostgres.SystemClock{},
		IDGen:      rubricpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	gradingRepo := gradingpostgres.NewRepository(pg.DB, logger)
	gradingModule := gradingservice.NewModule(gradingservice.Dependencies{
		Submissions:    gradingRepo,
		Results:        gradingRepo,
		Rubrics:        gradingRepo,
		Files:          gradingRepo,
		Extractor:      extract.PlainTextExtractor{},
		Grader:         grader.NewClient(cfg.GraderBaseURL, cfg.GraderAPIKey, cfg.GraderModel, logger),
		Outbox:         gradingRepo,
		Clock:          gradingpostgres.SystemClock{},
		IDGen:          gradingpostgres.UUIDGenerator{},
		GraderTimeout:  cfg.GraderTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	server := httpserver.New(rubricModule, gradingModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	rubricRepo := rubricpostgres.NewRepository(pg.DB, logger)
	gradingRepo := gradingpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		rubricRelay: rubricworkers.OutboxRelay{
			Outbox:    rubricRepo,
			Publisher: bus,
			Clock:     rubricpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		gradingRelay: gradingworkers.OutboxRelay{
			Outbox:    gradingRepo,
			Publisher: bus,
			Clock:     gradingpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		projection: gradingworkers.RubricProjectionConsumer{
			Subscriber:    bus,
			Projection:    gradingRepo,
			ConsumerGroup: "grading-service.rubric-projection",
			Logger:        logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		projEnabled:  cfg.EnableRubricProjection,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.projEnabled {
		if err := w.projection.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.relayEnabled {
			if err := w.rubricRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.gradingRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
