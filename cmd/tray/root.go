package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	tray "github.com/koscakluka/ema-tray/core"
	"github.com/koscakluka/ema-tray/core/audio/miniaudio"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/nlu/groq"
	"github.com/koscakluka/ema-tray/core/permissions"
	pipelinedeepgram "github.com/koscakluka/ema-tray/core/pipeline/deepgram"
	ttsdeepgram "github.com/koscakluka/ema-tray/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-tray/internal/hostconfig"
	"github.com/koscakluka/ema-tray/internal/tui"
)

var (
	configPath string
	envFile    string
	storage    string
	silent     bool
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "tray",
	Short: "Voice assistant tray in the terminal",
	Long: `Tray listens for speech, classifies what was said and answers out loud.
The first run asks for microphone access and downloads the models; later
runs start listening straight away.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}

		cfg, err := hostconfig.ReadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("store") {
			cfg.Storage.Driver = storage
		}
		if cmd.Flags().Changed("silent") {
			cfg.Silent = silent
		}

		return run(cmd.Context(), cfg)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tray configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config already exists at %s", configPath)
		}
		if err := hostconfig.WriteConfig(configPath, hostconfig.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", configPath)
		return nil
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", hostconfig.DefaultPath(), "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with DEEPGRAM_API_KEY and GROQ_API_KEY")
	rootCmd.Flags().StringVar(&storage, "store", "sqlite", "Where session flags persist: sqlite, json or memory")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "Start muted")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func run(ctx context.Context, cfg *hostconfig.Config) error {
	flags, closeFlags, err := openFlagStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFlags(); err != nil {
			logger.Error("failed to close flag store", "error", err)
		}
	}()

	client, err := miniaudio.NewClient(miniaudio.WithSampleRate(cfg.Speech.SampleRate))
	if err != nil {
		return fmt.Errorf("opening audio devices: %w", err)
	}
	defer client.Close()

	pipelineOpts := []pipelinedeepgram.PipelineOption{
		pipelinedeepgram.WithActivationTimeout(cfg.ActivationTimeout()),
	}
	if cfg.Speech.Model != "" {
		pipelineOpts = append(pipelineOpts, pipelinedeepgram.WithModel(cfg.Speech.Model))
	}
	if cfg.Speech.Language != "" {
		pipelineOpts = append(pipelineOpts, pipelinedeepgram.WithLanguage(cfg.Speech.Language))
	}

	var nluOpts []groq.EngineOption
	if cfg.NLU.Model != "" {
		nluOpts = append(nluOpts, groq.WithModel(cfg.NLU.Model))
	}

	modelDir := cfg.Models.Dir
	if modelDir == "" {
		modelDir = filepath.Join(hostconfig.DefaultDir(), "models")
	}

	queue := tui.NewEventQueue(256)
	opts := append(cfg.TrayOptions(),
		tray.WithContext(ctx),
		tray.WithSpeechPipeline(pipelinedeepgram.NewPipeline(client, pipelineOpts...)),
		tray.WithNLU(groq.NewEngine(nluOpts...)),
		tray.WithTextToSpeech(ttsdeepgram.NewEngine(ttsdeepgram.WithPlayer(client))),
		tray.WithPermissionGate(permissions.NewGate(
			client.MicrophoneAuthorizer(),
			permissions.Static{Status: permissions.StatusGranted},
		)),
		tray.WithModelDownloader(models.NewCoordinator(modelDir)),
		tray.WithFlagStore(flags),
		tray.WithEventCallback(queue.Publish),
	)

	vm := tray.NewViewModel(opts...)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		vm.StopListening()
		vm.Shutdown(shutdownCtx)
	}()

	program := tea.NewProgram(tui.NewModel(ctx, vm, queue), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running tray: %w", err)
	}
	return nil
}
