package commands

import (
	"context"

	panelfill "github.com/aouyang1/go-panelfill"
	"github.com/aouyang1/go-panelfill/config"
	"github.com/aouyang1/go-panelfill/fetch"
	"github.com/aouyang1/go-panelfill/source"
	"go.uber.org/zap"
)

func (a *app) fetchSource(ctx context.Context, cfg *config.Config, force bool) error {
	if cfg.Source.URL == "" {
		return nil
	}
	_, err := fetch.File(ctx, cfg.Source.URL, cfg.Source.Path, &fetch.Options{Force: force, Logger: a.logger})
	return err
}

func (a *app) load(cfg *config.Config) (*source.Result, error) {
	format, err := cfg.SourceFormat()
	if err != nil {
		return nil, err
	}

	var res *source.Result
	switch format {
	case "xlsx":
		res, err = source.XLSX(cfg.Source.Path, cfg.Source.Sheet, cfg.SourceSchema())
	default:
		res, err = source.CSVFile(cfg.Source.Path, cfg.SourceSchema())
	}
	if err != nil {
		return nil, err
	}

	for _, rej := range res.Rejected {
		a.logger.Debug("rejected row", zap.Int("line", rej.Line), zap.Error(rej.Err))
	}
	if len(res.MissingColumns) > 0 {
		a.logger.Warn("columns missing from source", zap.Strings("columns", res.MissingColumns))
	}
	a.logger.Info("source loaded",
		zap.String("path", cfg.Source.Path),
		zap.Int("observations", len(res.Observations)),
		zap.Int("rejected", len(res.Rejected)),
		zap.Int("outside_census", res.Filtered),
	)
	return res, nil
}

func (a *app) reconstruct(ctx context.Context, cfg *config.Config) (*panelfill.Results, error) {
	src, err := a.load(cfg)
	if err != nil {
		return nil, err
	}
	r, err := panelfill.New(cfg.Options(a.logger))
	if err != nil {
		return nil, err
	}
	return r.Reconstruct(ctx, src.Observations)
}
