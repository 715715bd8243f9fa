package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/aur-autoupdater/internal/config"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/version"
)

var (
	// configPath to the configuration YAML file; empty uses the default location.
	configPath string
	// logLevel overrides the level of the configuration file.
	logLevel string

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:           "aur-autoupdater",
		Short:         "Keep AUR packages in sync with their upstream releases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return applyLogLevel(logLevel)
		},
	}
)

// Execute runs the aur-autoupdater CLI and exits with non-zero status on error.
func Execute() {
	defer logger.Sync()

	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.ErrorKV(ctx, "Command failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("path to configuration file (default %s)", config.DefaultConfigFilename))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"minimum log level: debug, info, warn or error (overrides the configuration file)")
}

// applyLogLevel switches the global logger to level when it is set.
func applyLogLevel(level string) error {
	if level == "" {
		return nil
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, level)
	}

	logger.SetLevel(parsed)

	return nil
}

// loadConfig reads the configuration and applies its log level unless the flag set one.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if logLevel == "" {
		if err = applyLogLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
