package tray

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-tray/core/events"
	"github.com/koscakluka/ema-tray/core/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Listen runs first-use setup when needed, initializes NLU and starts the
// pipeline. On a fresh install it requests permissions and downloads the
// models; afterwards the durable flags skip straight to initialization.
//
// Listen blocks until setup finished. A second call while setup is running
// returns ErrSetupInProgress. Any other failure is a *SetupError and is also
// reported as a SetupFailed event.
func (vm *ViewModel) Listen(ctx context.Context) error {
	if !vm.setupInProgress.CompareAndSwap(false, true) {
		return ErrSetupInProgress
	}
	defer vm.setupInProgress.Store(false)

	ctx, span := tracer.Start(ctx, "tray setup")
	defer span.End()

	if err := vm.setup(ctx); err != nil {
		setupErr := newSetupError(err)
		logger.Error("tray setup failed", "reason", string(setupErr.Reason), "error", err)
		span.RecordError(setupErr)
		span.SetStatus(codes.Error, "setup failed")
		span.SetAttributes(attribute.String("setup.failure_reason", string(setupErr.Reason)))

		vm.runtime.enqueue("setup failed", func() { vm.emitEvent(events.NewSetupFailed(setupErr)) })
		return setupErr
	}

	vm.runtime.enqueue("setup completed", func() { vm.emitEvent(events.NewSetupCompleted()) })
	return nil
}

func (vm *ViewModel) setup(ctx context.Context) error {
	set, err := vm.ensureModels(ctx)
	if err != nil {
		return err
	}

	initialize := panicSafeNamedWorker("nlu initialization", func(ctx context.Context) error {
		return vm.controller.InitializeNLU(ctx, set)
	})
	if err := initialize(ctx); err != nil {
		return err
	}

	vm.controller.Start()
	return nil
}

func (vm *ViewModel) ensureModels(ctx context.Context) (models.DownloadedModelSet, error) {
	if vm.cache.ModelsDownloaded() {
		set, err := vm.downloader.Resolve(vm.config.ModelURLs)
		if err != nil {
			return models.DownloadedModelSet{}, fmt.Errorf("failed to resolve downloaded models: %w", err)
		}
		missing := set.Missing()
		if len(missing) == 0 {
			return set, nil
		}

		logger.Warn("downloaded models missing on disk, downloading again", "missing", missing)
		if err := vm.cache.InvalidateModels(); err != nil {
			return models.DownloadedModelSet{}, err
		}
	}

	if err := vm.gate.Request(ctx).Err(); err != nil {
		return models.DownloadedModelSet{}, err
	}

	var set models.DownloadedModelSet
	download := panicSafeNamedWorker("model download", func(ctx context.Context) (err error) {
		set, err = vm.downloader.DownloadAll(ctx, vm.config.ModelURLs)
		return err
	})
	if err := download(ctx); err != nil {
		return models.DownloadedModelSet{}, err
	}

	if err := vm.cache.MarkModelsDownloaded(); err != nil {
		return models.DownloadedModelSet{}, err
	}
	if err := vm.cache.SetOnboarded(true); err != nil {
		return models.DownloadedModelSet{}, err
	}
	return set, nil
}
