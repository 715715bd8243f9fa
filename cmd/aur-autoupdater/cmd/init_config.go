package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/aur-autoupdater/internal/config"
	"github.com/oshokin/aur-autoupdater/internal/logger"
)

var (
	// overwriteConfig allows replacing an existing configuration file.
	overwriteConfig bool

	errConfigExists = errors.New("configuration file already exists")

	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a configuration file filled with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithName(cmd.Context(), "init-config")

			path, err := writeDefaultConfig(configPath, overwriteConfig)
			if err != nil {
				return err
			}

			logger.InfoKV(ctx, "Configuration written", "path", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initConfigCmd.Flags().BoolVarP(&overwriteConfig, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(initConfigCmd)
}

// writeDefaultConfig saves the default settings to path and returns where they went.
// An existing file is kept unless overwrite is set.
func writeDefaultConfig(path string, overwrite bool) (string, error) {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", errConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("check configuration file: %w", err)
		}
	}

	cfg, err := config.Default()
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create configuration directory: %w", err)
		}
	}

	if err = config.Save(path, cfg); err != nil {
		return "", err
	}

	return path, nil
}
