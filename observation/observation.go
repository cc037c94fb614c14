// Package observation holds the sparse input records of a panel reconstruction along
// with the helpers used to canonicalise their keys and values.
package observation

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultEntityWidth is the width of an IBGE municipality code.
const DefaultEntityWidth = 7

var (
	ErrMissingEntityID = errors.New("missing entity id")
	ErrInvalidYear     = errors.New("invalid year")
)

// Observation is a single entity/year record. Identity holds attributes that are
// constant for an entity across its lifetime while Indicators holds the numeric
// values tracked per year. A NaN indicator or an empty identity value is unset.
type Observation struct {
	EntityID   string             `json:"entity_id"`
	Year       int                `json:"year"`
	Identity   map[string]string  `json:"identity,omitempty"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Indicator returns the value of the named indicator or NaN if absent.
func (o Observation) Indicator(name string) float64 {
	v, exists := o.Indicators[name]
	if !exists {
		return math.NaN()
	}
	return v
}

// IdentityValue returns the named identity attribute or an empty string if absent.
func (o Observation) IdentityValue(name string) string {
	return o.Identity[name]
}

// CanonicalEntityID normalises a raw entity code. Surrounding whitespace is removed
// along with a trailing ".0" left behind by float typed exports, and all-digit codes
// are left padded with zeros up to width so that numeric codes never lose leading
// zeros.
func CanonicalEntityID(raw string, width int) (string, error) {
	id := strings.TrimSpace(raw)
	if strings.HasSuffix(id, ".0") && isDigits(strings.TrimSuffix(id, ".0")) {
		id = strings.TrimSuffix(id, ".0")
	}
	if id == "" {
		return "", ErrMissingEntityID
	}
	if !isDigits(id) || len(id) >= width {
		return id, nil
	}
	return strings.Repeat("0", width-len(id)) + id, nil
}

// ParseYear parses a year column value. Float formatted years such as "2010.0" are accepted.
func ParseYear(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidYear, "%q", raw)
	}
	return year, nil
}

// ParseFloat converts a raw numeric field into a float. Both "." and "," are accepted as
// decimal separators and when both appear the leftmost one is treated as a thousands
// separator. Anything that does not parse, including placeholders such as "..." or "-",
// becomes NaN so that it is treated as a regular gap downstream.
func ParseFloat(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return math.NaN()
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
