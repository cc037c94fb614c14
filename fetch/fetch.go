// Package fetch acquires raw census exports. Sources are resolved with go-getter so
// local paths, http(s) URLs and object store URLs are all accepted.
package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
)

// AtlasURL is a mirror of the Atlas do Desenvolvimento Humano 2013 raw dump.
const AtlasURL = "https://raw.githubusercontent.com/kelvins/Municipios-Brasileiros/main/csv/atlas2013_dadosbrutos_pt.csv"

var ErrEmptySource = errors.New("empty source")

// Options configures a fetch.
type Options struct {
	// Force downloads even if the destination already exists.
	Force bool

	Logger *zap.Logger
}

func (o *Options) validate() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// File downloads src into the file dst, creating parent directories as needed. An
// existing dst is kept as is unless Force is set. Reports whether a download happened.
func File(ctx context.Context, src, dst string, opt *Options) (bool, error) {
	opt = opt.validate()
	if src == "" {
		return false, ErrEmptySource
	}

	if _, err := os.Stat(dst); err == nil {
		if !opt.Force {
			opt.Logger.Info("raw file already exists, skipping download", zap.String("dst", dst))
			return false, nil
		}
		if err := os.Remove(dst); err != nil {
			return false, errors.Wrapf(err, "unable to replace %s", dst)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, errors.Wrapf(err, "unable to stat %s", dst)
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return false, errors.Wrapf(err, "unable to detect source type of %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, errors.Wrapf(err, "unable to create directory for %s", dst)
	}

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: copyingGetters(),
	}

	opt.Logger.Info("fetching raw file", zap.String("src", detected), zap.String("dst", dst))
	if err := client.Get(); err != nil {
		return false, errors.Wrapf(err, "unable to fetch %s", src)
	}
	opt.Logger.Info("fetch completed", zap.String("dst", dst))
	return true, nil
}

// copyingGetters returns the default getters with local files copied instead of
// symlinked so the raw directory stays self contained.
func copyingGetters() map[string]getter.Getter {
	getters := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		getters[scheme] = g
	}
	getters["file"] = &getter.FileGetter{Copy: true}
	return getters
}
