package commands

import (
	"github.com/aouyang1/go-panelfill/sink"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		offline bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconstruct the panel and write it to the output path",
		Long: `Load the raw source, reconstruct every entity timeline on the target grid and
write the panel. The output format follows the output path extension: .csv,
.json or .db/.sqlite. The raw source is downloaded first when missing unless
--offline is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output.Path = output
			}

			if !offline {
				if err := a.fetchSource(ctx, cfg, false); err != nil {
					return err
				}
			}

			res, err := a.reconstruct(ctx, cfg)
			if err != nil {
				return err
			}

			w, err := sink.Open(cfg.Output.Path, cfg.SinkOptions())
			if err != nil {
				return err
			}
			if err := w.Write(ctx, res.Panel); err != nil {
				w.Close()
				return errors.Wrapf(err, "unable to write %s", cfg.Output.Path)
			}
			if err := w.Close(); err != nil {
				return errors.Wrapf(err, "unable to close %s", cfg.Output.Path)
			}
			a.logger.Info("panel written", zap.String("path", cfg.Output.Path), zap.Int("rows", res.Panel.Len()))

			return res.Coverage().TablePrint(cmd.OutOrStdout(), "", "  ")
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "never download the raw source")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override the configured output path")
	return cmd
}
