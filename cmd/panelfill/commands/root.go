// Package commands implements the panelfill command line.
package commands

import (
	"github.com/aouyang1/go-panelfill/config"
	"github.com/cockroachdb/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ErrUnknownProfile = errors.New("unknown profile mode")

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configPath  string
	debug       bool
	profileMode string

	logger  *zap.Logger
	profile interface{ Stop() }
}

// NewRootCmd builds the panelfill command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "panelfill",
		Short: "Reconstruct dense entity by year panels from sparse census data",
		Long: `panelfill turns sparse census observations into a dense panel with one row per
entity and target year. Identity attributes are propagated across each entity
timeline, gaps between census years are linearly interpolated and values after
the last census are carried forward.

Examples:
  panelfill fetch                     # download the raw Atlas dump if missing
  panelfill run -c panelfill.yaml     # reconstruct and write the panel
  panelfill plot 1100015 1100023      # chart entity timelines`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable development logging")
	root.PersistentFlags().StringVar(&a.profileMode, "profile", "", "write a cpu or mem profile to the working directory")

	root.AddCommand(newRunCmd(a), newFetchCmd(a), newPlotCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.debug {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	switch a.profileMode {
	case "":
	case "cpu":
		a.profile = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		a.profile = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	default:
		return errors.Wrapf(ErrUnknownProfile, "%q", a.profileMode)
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.profile != nil {
		a.profile.Stop()
	}
	if a.logger != nil {
		// stderr sync fails on some platforms
		_ = a.logger.Sync()
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("configuration loaded",
		zap.String("path", a.configPath),
		zap.Ints("grid", cfg.Grid),
		zap.Ints("census", cfg.Census),
	)
	return cfg, nil
}
