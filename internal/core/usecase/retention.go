package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-handler/internal/core/ports"
)

type RetentionUseCase struct {
	storage ports.ObjectStorage
	repo    ports.SubmissionRepository
	ttl     time.Duration
}

func NewRetentionUseCase(storage ports.ObjectStorage, repo ports.SubmissionRepository, ttl time.Duration) *RetentionUseCase {
	return &RetentionUseCase{storage: storage, repo: repo, ttl: ttl}
}

// Sweep removes stored files older than the retention window and returns how
// many were deleted. Individual removal failures are logged and skipped so a
// single bad object cannot stall the sweep.
func (uc *RetentionUseCase) Sweep(ctx context.Context) (int, error) {
	objects, err := uc.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored files: %w", err)
	}

	cutoff := time.Now().UTC().Add(-uc.ttl)
	removed := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !obj.ModifiedAt.Before(cutoff) {
			continue
		}
		if err := uc.storage.Remove(ctx, obj.Key); err != nil {
			slog.Warn("retention_remove_failed", "key", obj.Key, "error", err)
			continue
		}
		if err := uc.repo.DeleteByStorageKey(ctx, obj.Key); err != nil {
			slog.Warn("retention_tombstone_failed", "key", obj.Key, "error", err)
		}
		removed++
	}
	return removed, nil
}
