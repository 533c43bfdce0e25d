package tray

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-tray/core/store"
)

const (
	HasOnboardedKey                = "TrayHasOnboarded"
	HasGreetedKey                  = "TrayHasGreeted"
	HasDownloadedNLUModelsKey      = "HasDownloadedNLUModelsKey"
	HasDownloadedWakewordModelsKey = "HasDownloadedWakeWordModelsKey"
)

// SetupCache remembers which one-time setup steps already ran.
type SetupCache struct {
	flags store.FlagStore
}

func NewSetupCache(flags store.FlagStore) *SetupCache {
	if flags == nil {
		flags = store.NewMemoryStore()
	}
	return &SetupCache{flags: flags}
}

func (c *SetupCache) HasOnboarded() bool {
	return c.flags.Bool(HasOnboardedKey)
}

func (c *SetupCache) SetOnboarded(onboarded bool) error {
	return c.set(HasOnboardedKey, onboarded)
}

func (c *SetupCache) HasGreeted() bool {
	return c.flags.Bool(HasGreetedKey)
}

func (c *SetupCache) SetGreeted(greeted bool) error {
	return c.set(HasGreetedKey, greeted)
}

func (c *SetupCache) HasDownloadedNLUModels() bool {
	return c.flags.Bool(HasDownloadedNLUModelsKey)
}

func (c *SetupCache) HasDownloadedWakewordModels() bool {
	return c.flags.Bool(HasDownloadedWakewordModelsKey)
}

// ModelsDownloaded is true only when both model families were downloaded.
func (c *SetupCache) ModelsDownloaded() bool {
	return c.HasDownloadedNLUModels() && c.HasDownloadedWakewordModels()
}

func (c *SetupCache) MarkModelsDownloaded() error {
	return errors.Join(
		c.set(HasDownloadedNLUModelsKey, true),
		c.set(HasDownloadedWakewordModelsKey, true),
	)
}

// InvalidateModels forgets the downloads so the next setup fetches them
// again.
func (c *SetupCache) InvalidateModels() error {
	return errors.Join(
		c.set(HasDownloadedNLUModelsKey, false),
		c.set(HasDownloadedWakewordModelsKey, false),
	)
}

func (c *SetupCache) set(key string, value bool) error {
	if err := c.flags.SetBool(key, value); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}
