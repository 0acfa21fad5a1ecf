package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/document-handler/internal/core/domain"
	"github.com/kirillkom/document-handler/internal/core/ports"
)

type CleanupStoredFileUseCase struct {
	storage ports.ObjectStorage
	repo    ports.SubmissionRepository
}

func NewCleanupStoredFileUseCase(storage ports.ObjectStorage, repo ports.SubmissionRepository) *CleanupStoredFileUseCase {
	return &CleanupStoredFileUseCase{storage: storage, repo: repo}
}

// Cleanup removes a stored temp file and tombstones its submission record.
// Keys must be bare generated filenames; anything path-like is refused before
// touching storage.
func (uc *CleanupStoredFileUseCase) Cleanup(ctx context.Context, key string) error {
	if err := validateStorageKey(key); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate storage key", err)
	}

	if err := uc.storage.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove stored file: %w", err)
	}

	// Tombstoning is idempotent; a file stored before the index existed has
	// no row to mark.
	if err := uc.repo.DeleteByStorageKey(ctx, key); err != nil {
		return fmt.Errorf("tombstone submission: %w", err)
	}
	return nil
}

func validateStorageKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty storage key")
	}
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("storage key %q must not contain path separators", key)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("storage key %q must not contain '..'", key)
	}
	return nil
}
