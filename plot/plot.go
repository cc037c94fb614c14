// Package plot renders reconstructed panels as Apache ECharts html pages.
package plot

import (
	"io"
	"math"

	"github.com/aouyang1/go-panelfill/panel"
	"github.com/cockroachdb/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrUnknownEntity = errors.New("unknown entity")

// gap is the echarts placeholder for a missing value.
const gap = "-"

// LineYears generates an echart multi-line chart over a year axis. The input y is a
// slice of series that must have the same length as years. NaN values are drawn as gaps.
func LineYears(title string, seriesName []string, years []int, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(years)
	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) {
				lineData = append(lineData, opts.LineData{Value: gap})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// Entities writes an html page with one chart per indicator comparing the timelines of
// the given entities.
func Entities(w io.Writer, p *panel.Panel, indicators []string, entityIDs ...string) error {
	names := make([]string, 0, len(entityIDs))
	for _, id := range entityIDs {
		row, exists := p.Lookup(id, p.Grid().Year(0))
		if !exists {
			return errors.Wrapf(ErrUnknownEntity, "%q", id)
		}
		name := id
		if len(row.Identity) > 0 && row.Identity[0] != "" {
			name = id + " " + row.Identity[0]
		}
		names = append(names, name)
	}

	page := components.NewPage()
	for _, indicator := range indicators {
		y := make([][]float64, 0, len(entityIDs))
		for _, id := range entityIDs {
			series, err := p.Series(id, indicator)
			if err != nil {
				return err
			}
			y = append(y, series)
		}
		page.AddCharts(LineYears(indicator, names, p.Grid().Years(), y))
	}
	return page.Render(w)
}
