package sink

import (
	"context"
	"io"
	"math"

	"github.com/aouyang1/go-panelfill/interpolate"
	"github.com/aouyang1/go-panelfill/panel"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// JSON writes a panel as an array of row objects.
type JSON struct {
	w      io.Writer
	opt    *Options
	indent string
}

func NewJSON(w io.Writer, opt *Options) *JSON {
	return &JSON{w: w, opt: opt.validate(), indent: "  "}
}

type jsonRow struct {
	EntityID   string                      `json:"entity_id"`
	Year       int                         `json:"year"`
	Identity   map[string]string           `json:"identity"`
	Indicators map[string]*float64         `json:"indicators"`
	Fills      map[string]interpolate.Fill `json:"fills,omitempty"`
}

func (s *JSON) Write(ctx context.Context, p *panel.Panel) error {
	schema := p.Schema()
	rows := make([]jsonRow, 0, p.Len())
	for _, r := range p.Rows() {
		jr := jsonRow{
			EntityID:   r.EntityID,
			Year:       r.Year,
			Identity:   make(map[string]string, len(schema.Identity)),
			Indicators: make(map[string]*float64, len(schema.Indicators)),
		}
		for j, name := range schema.Identity {
			jr.Identity[name] = r.Identity[j]
		}
		for j, name := range schema.Indicators {
			if v := r.Indicators[j]; !math.IsNaN(v) {
				jr.Indicators[name] = &v
			} else {
				jr.Indicators[name] = nil
			}
		}
		if s.opt.IncludeFills {
			jr.Fills = make(map[string]interpolate.Fill, len(schema.Indicators))
			for j, name := range schema.Indicators {
				jr.Fills[name] = r.Fills[j]
			}
		}
		rows = append(rows, jr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.MarshalIndent(rows, "", s.indent)
	if err != nil {
		return errors.Wrap(err, "unable to marshal panel")
	}
	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return errors.Wrap(err, "unable to write panel")
	}
	return nil
}
