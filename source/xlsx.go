package source

import (
	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// XLSX loads an Excel export. An empty sheet name reads the first sheet of the workbook.
func XLSX(path, sheet string, s *Schema) (*Result, error) {
	s, err := s.Validate()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyHeader
	}

	l, err := newLayout(rows[0], s)
	if err != nil {
		return nil, err
	}
	res := l.newResult()
	for i, record := range rows[1:] {
		if len(record) == 0 {
			continue
		}
		l.add(res, i+2, record)
	}
	return res, nil
}
