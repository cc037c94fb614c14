package commands

import (
	"os"

	"github.com/aouyang1/go-panelfill/observation"
	"github.com/aouyang1/go-panelfill/plot"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPlotCmd(a *app) *cobra.Command {
	var (
		indicators []string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "plot ENTITY_ID...",
		Short: "Render the reconstructed timelines of some entities as an html page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			res, err := a.reconstruct(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(args))
			for _, raw := range args {
				id, err := observation.CanonicalEntityID(raw, cfg.Columns.EntityWidth)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if len(indicators) == 0 {
				indicators = res.Panel.Schema().Indicators
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "unable to create %s", output)
			}
			defer f.Close()

			if err := plot.Entities(f, res.Panel, indicators, ids...); err != nil {
				return err
			}
			a.logger.Info("plot written", zap.String("path", output), zap.Strings("entities", ids))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&indicators, "indicator", "i", nil, "indicators to chart, all by default")
	cmd.Flags().StringVarP(&output, "output", "o", "panel.html", "html output path")
	return cmd
}
