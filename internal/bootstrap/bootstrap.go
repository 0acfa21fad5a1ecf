package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/document-handler/internal/config"
	"github.com/kirillkom/document-handler/internal/core/ports"
	"github.com/kirillkom/document-handler/internal/core/usecase"
	"github.com/kirillkom/document-handler/internal/infrastructure/classifier/static"
	"github.com/kirillkom/document-handler/internal/infrastructure/detector/signature"
	"github.com/kirillkom/document-handler/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-handler/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-handler/internal/infrastructure/resilience"
	"github.com/kirillkom/document-handler/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-handler/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Queue   *nats.Queue
	Repo    ports.SubmissionRepository
	Storage ports.ObjectStorage

	ProcessUC   ports.SubmissionProcessor
	CleanupUC   ports.StoredFileCleaner
	RetentionUC ports.RetentionEnforcer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewSubmissionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	detector := signature.New()
	classifier := static.New()

	processUC := usecase.NewProcessSubmissionUseCase(repo, storage, detector, classifier, queue, cfg.MaxDocumentBytes)
	cleanupUC := usecase.NewCleanupStoredFileUseCase(storage, repo)
	retentionUC := usecase.NewRetentionUseCase(storage, repo, time.Duration(cfg.RetentionTTLMinutes)*time.Minute)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Storage: storage,

		ProcessUC:   processUC,
		CleanupUC:   cleanupUC,
		RetentionUC: retentionUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return localfs.New(cfg.StoragePath)
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
