package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/makeitchaccha/voicewealth/voicewealth"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "voicewealth",
		Short:         "Speak a random affirmation in English, Arabic or French",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConsole,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
	rootCmd.AddCommand(runCmd, sayCmd, voicesCmd, catalogCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("voicewealth failed", slog.Any("err", err))
		os.Exit(1)
	}
}

// loadConfig reads and validates the config and installs the logger it describes.
func loadConfig() (*voicewealth.Config, error) {
	cfg, err := voicewealth.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := setupLogger(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func startApp(ctx context.Context) (*voicewealth.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	slog.Info("Starting voicewealth...", slog.String("version", Version), slog.String("commit", Commit))
	return voicewealth.New(ctx, *cfg, Version, Commit)
}

// setupLogger logs to stderr so it does not interleave with console output on stdout.
func setupLogger(cfg voicewealth.LogConfig) error {
	opts := &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     cfg.Level,
	}

	var sHandler slog.Handler
	switch cfg.Format {
	case "json":
		sHandler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		sHandler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	slog.SetDefault(slog.New(sHandler))
	return nil
}
