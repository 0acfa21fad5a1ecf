package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-handler/internal/bootstrap"
	"github.com/kirillkom/document-handler/internal/config"
	"github.com/kirillkom/document-handler/internal/core/domain"
	"github.com/kirillkom/document-handler/internal/observability/logging"
	"github.com/kirillkom/document-handler/internal/observability/metrics"
)

const serviceName = "document-handler-worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	go runRetentionLoop(ctx, app, workerMetrics, time.Duration(cfg.RetentionSweepSeconds)*time.Second)

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSubmissionProcessed(ctx, func(_ context.Context, event domain.SubmissionEvent) error {
		workerMetrics.RecordSubmissionEvent(serviceName, event.Status)
		slog.Info("submission_processed",
			"submission_id", event.SubmissionID,
			"status", event.Status,
			"mime_type", event.MIMEType,
			"storage_key", event.StorageKey,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func runRetentionLoop(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			removed, err := app.RetentionUC.Sweep(ctx)
			m.FinishSweep(serviceName, removed, time.Since(start), err)
			if err != nil {
				slog.Error("retention_sweep_failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("retention_sweep_complete", "removed", removed)
			}
		}
	}
}
