package sink

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/aouyang1/go-panelfill/panel"
	"github.com/cockroachdb/errors"
)

// CSV writes a panel as comma separated text with a header row.
type CSV struct {
	w   io.Writer
	opt *Options
}

func NewCSV(w io.Writer, opt *Options) *CSV {
	return &CSV{w: w, opt: opt.validate()}
}

func (s *CSV) Write(ctx context.Context, p *panel.Panel) error {
	cw := csv.NewWriter(s.w)
	if err := cw.Write(s.opt.header(p)); err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	record := make([]string, 0, len(s.opt.header(p)))
	for i, r := range p.Rows() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record = append(record[:0], r.EntityID, strconv.Itoa(r.Year))
		record = append(record, r.Identity...)
		for _, v := range r.Indicators {
			record = append(record, formatFloat(v))
		}
		if s.opt.IncludeFills {
			for _, f := range r.Fills {
				record = append(record, f.String())
			}
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "unable to write row %s/%d", r.EntityID, r.Year)
		}
	}
	cw.Flush()
	return cw.Error()
}
