package tray

import (
	"errors"
	"testing"

	"github.com/koscakluka/ema-tray/core/store"
)

type failingFlagStore struct {
	store.FlagStore
	err error
}

func (s failingFlagStore) SetBool(string, bool) error {
	return s.err
}

func TestSetupCacheModelsDownloadedNeedsBothFlags(t *testing.T) {
	flags := store.NewMemoryStore()
	cache := NewSetupCache(flags)

	if cache.ModelsDownloaded() {
		t.Fatalf("expected fresh cache to report no downloads")
	}

	if err := flags.SetBool(HasDownloadedWakewordModelsKey, true); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if cache.ModelsDownloaded() {
		t.Fatalf("expected a single flag not to count as downloaded")
	}

	if err := cache.MarkModelsDownloaded(); err != nil {
		t.Fatalf("failed to mark models: %v", err)
	}
	if !cache.ModelsDownloaded() || !cache.HasDownloadedNLUModels() {
		t.Fatalf("expected models to be downloaded")
	}

	if err := cache.InvalidateModels(); err != nil {
		t.Fatalf("failed to invalidate models: %v", err)
	}
	if cache.HasDownloadedNLUModels() || cache.HasDownloadedWakewordModels() {
		t.Fatalf("expected both flags to be cleared")
	}
}

func TestSetupCacheFlagsPersistInStore(t *testing.T) {
	flags := store.NewMemoryStore()
	cache := NewSetupCache(flags)

	if err := cache.SetOnboarded(true); err != nil {
		t.Fatalf("failed to set onboarded: %v", err)
	}
	if err := cache.SetGreeted(true); err != nil {
		t.Fatalf("failed to set greeted: %v", err)
	}

	reopened := NewSetupCache(flags)
	if !reopened.HasOnboarded() || !reopened.HasGreeted() {
		t.Fatalf("expected flags to survive a new cache")
	}
	if !flags.Bool("TrayHasOnboarded") || !flags.Bool("TrayHasGreeted") {
		t.Fatalf("expected the durable keys to be used")
	}
}

func TestSetupCacheReportsStoreFailures(t *testing.T) {
	errWrite := errors.New("disk full")
	cache := NewSetupCache(failingFlagStore{FlagStore: store.NewMemoryStore(), err: errWrite})

	if err := cache.MarkModelsDownloaded(); !errors.Is(err, errWrite) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if err := cache.SetGreeted(true); !errors.Is(err, errWrite) {
		t.Fatalf("expected write failure, got %v", err)
	}
}
