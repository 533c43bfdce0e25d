package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/koscakluka/ema-tray/core/store"
	"github.com/koscakluka/ema-tray/core/store/sqlite"
	"github.com/koscakluka/ema-tray/internal/hostconfig"
)

func openFlagStore(cfg hostconfig.StorageConfig) (store.FlagStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), noop, nil

	case "json":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(hostconfig.DefaultDir(), "flags.json")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating flag store directory: %w", err)
		}
		flags, err := store.NewJSONFileStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening flag store: %w", err)
		}
		return flags, noop, nil

	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(hostconfig.DefaultDir(), "flags.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating flag store directory: %w", err)
		}
		flags, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening flag store: %w", err)
		}
		return flags, flags.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown flag store %q", cfg.Driver)
	}
}
