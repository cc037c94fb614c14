package sink

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/aouyang1/go-panelfill/grid"
	"github.com/aouyang1/go-panelfill/observation"
	"github.com/aouyang1/go-panelfill/panel"
	"github.com/aouyang1/go-panelfill/timedataset"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPanel(t *testing.T) *panel.Panel {
	t.Helper()
	g := grid.MustNew(2000, 2005, 2010)
	s := timedataset.Schema{Identity: []string{"nome"}, Indicators: []string{"x", "y"}}

	obs := map[string][]observation.Observation{
		"a": {
			{EntityID: "a", Year: 2000, Identity: map[string]string{"nome": "A"}, Indicators: map[string]float64{"x": 1}},
			{EntityID: "a", Year: 2010, Indicators: map[string]float64{"x": 2}},
		},
		"b": {
			{EntityID: "b", Year: 2005, Identity: map[string]string{"nome": "B"}, Indicators: map[string]float64{"y": 3}},
		},
	}
	var timelines []*timedataset.TimeDataset
	for _, id := range []string{"a", "b"} {
		td, err := timedataset.Reconstruct(id, obs[id], g, s)
		require.Nil(t, err)
		timelines = append(timelines, td)
	}
	p, err := panel.Assemble(timelines, g, s, nil)
	require.Nil(t, err)
	return p
}

func TestCSV(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected string
	}{
		"default": {
			expected: "codmun,ano,nome,x,y\n" +
				"a,2000,A,1,\n" +
				"a,2005,A,1.5,\n" +
				"a,2010,A,2,\n" +
				"b,2000,B,,\n" +
				"b,2005,B,,3\n" +
				"b,2010,B,,3\n",
		},
		"with fills": {
			opt: &Options{EntityColumn: "id", YearColumn: "year", IncludeFills: true},
			expected: "id,year,nome,x,y,x_fill,y_fill\n" +
				"a,2000,A,1,,observed,unset\n" +
				"a,2005,A,1.5,,interpolated,unset\n" +
				"a,2010,A,2,,observed,unset\n" +
				"b,2000,B,,,unset,unset\n" +
				"b,2005,B,,3,unset,observed\n" +
				"b,2010,B,,3,unset,carried_forward\n",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, NewCSV(&buf, td.opt).Write(context.Background(), testPanel(t)))
			assert.Equal(t, td.expected, buf.String())
		})
	}
}

func TestCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewCSV(&buf, nil).Write(ctx, testPanel(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, NewJSON(&buf, &Options{IncludeFills: true}).Write(context.Background(), testPanel(t)))

	var rows []struct {
		EntityID   string              `json:"entity_id"`
		Year       int                 `json:"year"`
		Identity   map[string]string   `json:"identity"`
		Indicators map[string]*float64 `json:"indicators"`
		Fills      map[string]string   `json:"fills"`
	}
	require.Nil(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 6)

	r := rows[1]
	assert.Equal(t, "a", r.EntityID)
	assert.Equal(t, 2005, r.Year)
	assert.Equal(t, "A", r.Identity["nome"])
	require.NotNil(t, r.Indicators["x"])
	assert.InDelta(t, 1.5, *r.Indicators["x"], 1e-9)
	assert.Nil(t, r.Indicators["y"])
	assert.Equal(t, "interpolated", r.Fills["x"])
	assert.Equal(t, "unset", r.Fills["y"])

	assert.Contains(t, buf.String(), `"y": null`)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "panel.db")
	s, err := OpenSQLite(path, "", &Options{IncludeFills: true})
	require.Nil(t, err)
	defer s.Close()

	p := testPanel(t)
	// a second write replaces the first
	require.Nil(t, s.Write(context.Background(), p))
	require.Nil(t, s.Write(context.Background(), p))

	var count int
	require.Nil(t, s.db.QueryRow(`SELECT COUNT(*) FROM "panel"`).Scan(&count))
	assert.Equal(t, 6, count)

	testData := map[string]struct {
		entity string
		year   int
		nome   string
		x      sql.NullFloat64
		y      sql.NullFloat64
		xFill  string
	}{
		"interpolated": {
			entity: "a", year: 2005, nome: "A",
			x:     sql.NullFloat64{Float64: 1.5, Valid: true},
			xFill: "interpolated",
		},
		"carried forward": {
			entity: "b", year: 2010, nome: "B",
			y:     sql.NullFloat64{Float64: 3, Valid: true},
			xFill: "unset",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var (
				nome  string
				x, y  sql.NullFloat64
				xFill string
			)
			err := s.db.QueryRow(`SELECT nome, x, y, x_fill FROM "panel" WHERE codmun = ? AND ano = ?`,
				td.entity, td.year).Scan(&nome, &x, &y, &xFill)
			require.Nil(t, err)
			assert.Equal(t, td.nome, nome)
			assert.Equal(t, td.x, x)
			assert.Equal(t, td.y, y)
			assert.Equal(t, td.xFill, xFill)
		})
	}

	_, err = s.db.Exec(`INSERT INTO "panel" (codmun, ano, x_fill, y_fill) VALUES ('a', 2000, 'unset', 'unset')`)
	assert.NotNil(t, err, "entity and year must be unique")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	testData := map[string]struct {
		path string
		err  error
	}{
		"csv":     {path: filepath.Join(dir, "panel.csv")},
		"json":    {path: filepath.Join(dir, "nested", "panel.json")},
		"sqlite":  {path: filepath.Join(dir, "panel.sqlite")},
		"unknown": {path: filepath.Join(dir, "panel.parquet"), err: ErrUnknownFormat},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w, err := Open(td.path, nil)
			if td.err != nil {
				assert.True(t, errors.Is(err, td.err), "unexpected error %v", err)
				return
			}
			require.Nil(t, err)
			require.Nil(t, w.Write(context.Background(), testPanel(t)))
			require.Nil(t, w.Close())

			info, err := os.Stat(td.path)
			require.Nil(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}
