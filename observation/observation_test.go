package observation

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEntityID(t *testing.T) {
	testData := map[string]struct {
		raw      string
		width    int
		expected string
		err      error
	}{
		"empty":              {raw: "", width: 7, err: ErrMissingEntityID},
		"whitespace only":    {raw: "   ", width: 7, err: ErrMissingEntityID},
		"already canonical":  {raw: "3550308", width: 7, expected: "3550308"},
		"missing zeros":      {raw: "1000", width: 7, expected: "0001000"},
		"float export":       {raw: "1100015.0", width: 7, expected: "1100015"},
		"float short":        {raw: "1000.0", width: 7, expected: "0001000"},
		"surrounding spaces": {raw: " 42 ", width: 4, expected: "0042"},
		"non numeric":        {raw: "SP-01", width: 7, expected: "SP-01"},
		"wider than width":   {raw: "123456789", width: 7, expected: "123456789"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			id, err := CanonicalEntityID(td.raw, td.width)
			if td.err != nil {
				assert.True(t, errors.Is(err, td.err))
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, id)
		})
	}
}

func TestParseYear(t *testing.T) {
	testData := map[string]struct {
		raw      string
		expected int
		err      error
	}{
		"plain":   {raw: "2010", expected: 2010},
		"float":   {raw: "2000.0", expected: 2000},
		"spaces":  {raw: " 2005 ", expected: 2005},
		"invalid": {raw: "ano", err: ErrInvalidYear},
		"empty":   {raw: "", err: ErrInvalidYear},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			year, err := ParseYear(td.raw)
			if td.err != nil {
				assert.True(t, errors.Is(err, td.err))
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, year)
		})
	}
}

func TestParseFloat(t *testing.T) {
	testData := map[string]struct {
		raw      string
		expected float64
	}{
		"dot decimal":              {raw: "0.727", expected: 0.727},
		"comma decimal":            {raw: "0,727", expected: 0.727},
		"integer":                  {raw: "1500", expected: 1500},
		"negative comma":           {raw: "-3,5", expected: -3.5},
		"thousands dot comma":      {raw: "1.234,5", expected: 1234.5},
		"thousands comma dot":      {raw: "1,234.5", expected: 1234.5},
		"surrounding spaces":       {raw: "  12,25 ", expected: 12.25},
		"empty":                    {raw: "", expected: math.NaN()},
		"tabnet placeholder":       {raw: "...", expected: math.NaN()},
		"dash placeholder":         {raw: "-", expected: math.NaN()},
		"text":                     {raw: "n/a", expected: math.NaN()},
		"ambiguous many commas":    {raw: "1,234,567", expected: math.NaN()},
		"infinity is not a number": {raw: "Inf", expected: math.NaN()},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			v := ParseFloat(td.raw)
			if math.IsNaN(td.expected) {
				assert.True(t, math.IsNaN(v), "expected NaN, got %f", v)
				return
			}
			assert.InDelta(t, td.expected, v, 1e-12)
		})
	}
}

func TestObservationAccessors(t *testing.T) {
	o := Observation{
		EntityID:   "0001000",
		Year:       2000,
		Identity:   map[string]string{"uf": "SP"},
		Indicators: map[string]float64{"idhm": 0.5},
	}
	assert.Equal(t, 0.5, o.Indicator("idhm"))
	assert.True(t, math.IsNaN(o.Indicator("renda_pc")))
	assert.Equal(t, "SP", o.IdentityValue("uf"))
	assert.Equal(t, "", o.IdentityValue("nome_municipio"))

	var empty Observation
	assert.True(t, math.IsNaN(empty.Indicator("idhm")))
	assert.Equal(t, "", empty.IdentityValue("uf"))
}
