package source

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// CSV loads a delimited text export. The first record is the header.
func CSV(r io.Reader, s *Schema) (*Result, error) {
	s, err := s.Validate()
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = s.Comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyHeader
		}
		return nil, errors.Wrap(err, "unable to read header")
	}
	l, err := newLayout(header, s)
	if err != nil {
		return nil, err
	}

	res := l.newResult()
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rejected = append(res.Rejected, Rejection{Line: perr.Line, Err: err})
				continue
			}
			return nil, errors.Wrap(err, "unable to read record")
		}
		line, _ := cr.FieldPos(0)
		l.add(res, line, record)
	}
	return res, nil
}

// CSVFile loads a delimited text export from disk.
func CSVFile(path string, s *Schema) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	return CSV(f, s)
}
