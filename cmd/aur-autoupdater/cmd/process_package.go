package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

var (
	// packageName is the AUR package to update.
	packageName string

	processPackageCmd = &cobra.Command{
		Use:   "process-package",
		Short: "Update one AUR package to its newest upstream release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithName(cmd.Context(), "process-package")

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}

			_, err = app.service.ProcessPackage(ctx, packageName)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	processPackageCmd.Flags().StringVarP(&packageName, "package-name", "p", "", "name of the AUR package")
	_ = processPackageCmd.MarkFlagRequired("package-name")

	rootCmd.AddCommand(processPackageCmd)
}
