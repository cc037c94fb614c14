// Package sink persists reconstructed panels. Every sink writes the rows in panel order
// with one column per identity attribute and indicator. Unset indicators are written as
// empty cells, JSON nulls or SQL NULLs.
package sink

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aouyang1/go-panelfill/panel"
	"github.com/cockroachdb/errors"
)

var ErrUnknownFormat = errors.New("unknown output format")

const (
	DefaultEntityColumn = "codmun"
	DefaultYearColumn   = "ano"
	fillSuffix          = "_fill"
)

// Writer persists a panel.
type Writer interface {
	Write(ctx context.Context, p *panel.Panel) error
}

// WriteCloser is a Writer holding an underlying resource.
type WriteCloser interface {
	Writer
	io.Closer
}

// Options configures the column layout shared by every sink.
type Options struct {
	EntityColumn string `json:"entity_column"`
	YearColumn   string `json:"year_column"`

	// IncludeFills adds a column per indicator recording how each value was obtained.
	IncludeFills bool `json:"include_fills"`
}

// NewDefaultOptions returns the column layout of the published atlas panel.
func NewDefaultOptions() *Options {
	return &Options{
		EntityColumn: DefaultEntityColumn,
		YearColumn:   DefaultYearColumn,
	}
}

func (o *Options) validate() *Options {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.EntityColumn == "" {
		o.EntityColumn = DefaultEntityColumn
	}
	if o.YearColumn == "" {
		o.YearColumn = DefaultYearColumn
	}
	return o
}

// header returns the output column names for the panel schema.
func (o *Options) header(p *panel.Panel) []string {
	s := p.Schema()
	cols := make([]string, 0, 2+len(s.Identity)+2*len(s.Indicators))
	cols = append(cols, o.EntityColumn, o.YearColumn)
	cols = append(cols, s.Identity...)
	cols = append(cols, s.Indicators...)
	if o.IncludeFills {
		for _, name := range s.Indicators {
			cols = append(cols, name+fillSuffix)
		}
	}
	return cols
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type fileSink struct {
	Writer
	f *os.File
}

func (s *fileSink) Close() error {
	return s.f.Close()
}

// Open creates a sink for path picking the format from its extension: .csv, .json or
// .db/.sqlite/.sqlite3.
func Open(path string, opt *Options) (WriteCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLite(path, "", opt)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ".csv", ".json":
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", path)
	}
	if ext == ".csv" {
		return &fileSink{Writer: NewCSV(f, opt), f: f}, nil
	}
	return &fileSink{Writer: NewJSON(f, opt), f: f}, nil
}
