package commands

import (
	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw source if it is not present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.fetchSource(cmd.Context(), cfg, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "download even if the raw source exists")
	return cmd
}
