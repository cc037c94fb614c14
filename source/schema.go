// Package source loads raw census exports into observations. Loaders map raw column
// headers onto canonical identity and indicator names, canonicalise entity codes and
// drop rows outside of the census years before anything reaches the reconstruction.
package source

import (
	"slices"
	"sort"
	"strings"

	"github.com/aouyang1/go-panelfill/observation"
	"github.com/cockroachdb/errors"
)

var (
	ErrMissingColumn   = errors.New("column not found in header")
	ErrEmptyHeader     = errors.New("empty header")
	ErrNoSheets        = errors.New("workbook has no sheets")
	ErrDuplicateTarget = errors.New("multiple raw columns map to the same name")
)

// Schema describes the layout of a raw export.
type Schema struct {
	EntityColumn string `json:"entity_column"`
	YearColumn   string `json:"year_column"`

	// Identity and Indicators map raw header names onto canonical column names.
	// Raw columns absent from the header are skipped.
	Identity   map[string]string `json:"identity"`
	Indicators map[string]string `json:"indicators"`

	// EntityWidth left pads all-digit entity codes with zeros.
	EntityWidth int `json:"entity_width"`

	// CensusYears keeps only rows of these years. Empty keeps every row.
	CensusYears []int `json:"census_years"`

	// Comma is the field delimiter of delimited text exports.
	Comma rune `json:"comma"`
}

// NewAtlasSchema returns the layout of the Atlas do Desenvolvimento Humano raw dump.
func NewAtlasSchema() *Schema {
	return &Schema{
		EntityColumn: "Codmun7",
		YearColumn:   "ANO",
		Identity: map[string]string{
			"Município": "nome_municipio",
			"UF":        "uf",
		},
		Indicators: map[string]string{
			"IDHM":       "idhm",
			"IDHM_R":     "idhm_renda",
			"IDHM_E":     "idhm_educ",
			"IDHM_L":     "idhm_longevidade",
			"RDPC":       "renda_pc",
			"ESPVIDA":    "esp_vida",
			"T_ANALF15M": "tx_analfabetismo",
		},
		EntityWidth: observation.DefaultEntityWidth,
		CensusYears: []int{2000, 2010},
		Comma:       ';',
	}
}

// Validate checks the schema, filling zero values with defaults.
func (s *Schema) Validate() (*Schema, error) {
	if s == nil {
		s = NewAtlasSchema()
	}
	if s.EntityColumn == "" {
		return nil, errors.Wrap(ErrMissingColumn, "entity column not set")
	}
	if s.YearColumn == "" {
		return nil, errors.Wrap(ErrMissingColumn, "year column not set")
	}
	if s.EntityWidth <= 0 {
		s.EntityWidth = observation.DefaultEntityWidth
	}
	if s.Comma == 0 {
		s.Comma = ';'
	}

	targets := make(map[string]struct{}, len(s.Identity)+len(s.Indicators))
	for _, m := range []map[string]string{s.Identity, s.Indicators} {
		for _, name := range m {
			if _, exists := targets[name]; exists {
				return nil, errors.Wrapf(ErrDuplicateTarget, "%q", name)
			}
			targets[name] = struct{}{}
		}
	}
	return s, nil
}

// IdentityNames returns the canonical identity column names in sorted order.
func (s *Schema) IdentityNames() []string {
	return targetNames(s.Identity)
}

// IndicatorNames returns the canonical indicator column names in sorted order.
func (s *Schema) IndicatorNames() []string {
	return targetNames(s.Indicators)
}

func targetNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for _, name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type column struct {
	index int
	name  string
}

// layout binds a schema to the column positions of a header row.
type layout struct {
	schema     *Schema
	entity     int
	year       int
	identity   []column
	indicators []column
	missing    []string
}

func newLayout(header []string, s *Schema) (*layout, error) {
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, exists := pos[h]; !exists {
			pos[h] = i
		}
	}

	l := &layout{schema: s}
	var exists bool
	if l.entity, exists = pos[s.EntityColumn]; !exists {
		return nil, errors.Wrapf(ErrMissingColumn, "entity column %q", s.EntityColumn)
	}
	if l.year, exists = pos[s.YearColumn]; !exists {
		return nil, errors.Wrapf(ErrMissingColumn, "year column %q", s.YearColumn)
	}
	l.identity = l.bind(pos, s.Identity)
	l.indicators = l.bind(pos, s.Indicators)
	return l, nil
}

func (l *layout) bind(pos map[string]int, m map[string]string) []column {
	raws := make([]string, 0, len(m))
	for raw := range m {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	cols := make([]column, 0, len(m))
	for _, raw := range raws {
		i, exists := pos[raw]
		if !exists {
			l.missing = append(l.missing, raw)
			continue
		}
		cols = append(cols, column{index: i, name: m[raw]})
	}
	return cols
}

func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// decode converts a record. A false keep means the row is outside of the census
// years.
func (l *layout) decode(record []string) (o observation.Observation, keep bool, err error) {
	year, err := observation.ParseYear(cell(record, l.year))
	if err != nil {
		return o, false, err
	}
	if len(l.schema.CensusYears) > 0 && !slices.Contains(l.schema.CensusYears, year) {
		return o, false, nil
	}

	// blank codes are left for the reconstruction to reject
	id, _ := observation.CanonicalEntityID(cell(record, l.entity), l.schema.EntityWidth)

	o = observation.Observation{
		EntityID:   id,
		Year:       year,
		Identity:   make(map[string]string, len(l.identity)),
		Indicators: make(map[string]float64, len(l.indicators)),
	}
	for _, c := range l.identity {
		if v := strings.TrimSpace(cell(record, c.index)); v != "" {
			o.Identity[c.name] = v
		}
	}
	for _, c := range l.indicators {
		o.Indicators[c.name] = observation.ParseFloat(cell(record, c.index))
	}
	return o, true, nil
}

// Rejection is a raw row that could not be converted into an observation.
type Rejection struct {
	Line int
	Err  error
}

func (r Rejection) Error() string {
	return errors.Wrapf(r.Err, "line %d", r.Line).Error()
}

// Result holds the observations of a load along with the rows that were dropped.
type Result struct {
	Observations []observation.Observation
	Rejected     []Rejection

	// Filtered counts rows outside of the census years.
	Filtered int
	// MissingColumns lists the raw identity and indicator columns absent from the header.
	MissingColumns []string
}

func (l *layout) newResult() *Result {
	return &Result{MissingColumns: l.missing}
}

func (l *layout) add(res *Result, line int, record []string) {
	o, keep, err := l.decode(record)
	switch {
	case err != nil:
		res.Rejected = append(res.Rejected, Rejection{Line: line, Err: err})
	case !keep:
		res.Filtered++
	default:
		res.Observations = append(res.Observations, o)
	}
}
