package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

var (
	// processUsername is the AUR maintainer whose packages are updated.
	processUsername string

	processUserCmd = &cobra.Command{
		Use:   "process-user",
		Short: "Update every AUR package maintained by a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithName(cmd.Context(), "process-user")

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}

			return app.service.ProcessUser(ctx, processUsername)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	processUserCmd.Flags().StringVarP(&processUsername, "username", "u", "", "AUR maintainer name")
	_ = processUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(processUserCmd)
}
