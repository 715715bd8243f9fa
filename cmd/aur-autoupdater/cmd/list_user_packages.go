package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

const outputJSON = "json"

var (
	// listUsername is the AUR maintainer whose packages are listed.
	listUsername string
	// outputType selects the listing format.
	outputType string

	errUnsupportedOutput = errors.New("unsupported output type")

	listUserPackagesCmd = &cobra.Command{
		Use:   "list-user-packages",
		Short: "Print the AUR packages maintained by a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputType != outputJSON {
				return fmt.Errorf("%w: %q", errUnsupportedOutput, outputType)
			}

			ctx := logger.WithName(cmd.Context(), "list-user-packages")

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}

			names, err := app.lister.ListUserPackages(ctx, listUsername)
			if err != nil {
				return err
			}

			if names == nil {
				names = []string{}
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	listUserPackagesCmd.Flags().StringVarP(&listUsername, "username", "u", "", "AUR maintainer name")
	listUserPackagesCmd.Flags().StringVarP(&outputType, "output-type", "o", outputJSON, "output format (json)")
	_ = listUserPackagesCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(listUserPackagesCmd)
}
