package timedataset

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyColumnName = errors.New("empty column name")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrNoColumns       = errors.New("no identity or indicator columns")
)

// Schema names the identity and numeric indicator columns carried by a reconstruction.
// Column order is preserved in the output.
type Schema struct {
	Identity   []string `json:"identity"`
	Indicators []string `json:"indicators"`
}

// Validate checks that every column is named and that no name is repeated across
// identity and indicator columns.
func (s Schema) Validate() error {
	if len(s.Identity) == 0 && len(s.Indicators) == 0 {
		return ErrNoColumns
	}
	seen := make(map[string]struct{}, len(s.Identity)+len(s.Indicators))
	for _, cols := range [][]string{s.Identity, s.Indicators} {
		for _, col := range cols {
			if strings.TrimSpace(col) == "" {
				return ErrEmptyColumnName
			}
			if _, exists := seen[col]; exists {
				return errors.Wrapf(ErrDuplicateColumn, "%q", col)
			}
			seen[col] = struct{}{}
		}
	}
	return nil
}
