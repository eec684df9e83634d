// tabular/reader.go
package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"
)

const utf8BOM = "\ufeff"

// RowReader yields one record per call and io.EOF once exhausted.
// The first record is the header. It matches csvutil.Reader.
type RowReader interface {
	Read() ([]string, error)
}

// fittedReader makes an upstream reader tolerant: blank records are skipped,
// records with a quoting error are dropped, and every data record is padded
// with empty cells or truncated to the header width.
type fittedReader struct {
	src   RowReader
	width int
}

func (f *fittedReader) Read() ([]string, error) {
	for {
		rec, err := f.src.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				log.Printf("WARN Tabular: dropping malformed record at line %d: %v", perr.Line, perr.Err)
				continue
			}
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		if f.width == 0 {
			f.width = len(rec)
			return rec, nil
		}
		return fit(rec, f.width), nil
	}
}

func isBlank(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}

func fit(rec []string, width int) []string {
	switch {
	case len(rec) == width:
		return rec
	case len(rec) > width:
		return rec[:width]
	}
	padded := make([]string, width)
	copy(padded, rec)
	return padded
}

// NewDelimitedReader strips a leading BOM, detects the delimiter from the
// first line and returns a tolerant reader over text.
func NewDelimitedReader(text string) RowReader {
	text = strings.TrimPrefix(text, utf8BOM)
	return NewDelimitedReaderWith(text, DetectDelimiter(text))
}

// NewDelimitedReaderWith is NewDelimitedReader with an explicit delimiter.
func NewDelimitedReaderWith(text string, delim rune) RowReader {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM)))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return &fittedReader{src: r}
}

type sliceReader struct {
	rows [][]string
	pos  int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// NewSliceReader wraps rows already split into cells (e.g. a spreadsheet
// sheet) with the same tolerance rules as NewDelimitedReader.
func NewSliceReader(rows [][]string) RowReader {
	return &fittedReader{src: &sliceReader{rows: rows}}
}
