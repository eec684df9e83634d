// tabular/csv_parser.go
package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// ErrEmptyInput is returned when the input has no header line.
var ErrEmptyInput = errors.New("tabular: input is empty")

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Record maps header names to the raw cell text of one data row.
type Record map[string]string

// DecodeOptions controls how Decode maps the header onto csv struct tags.
type DecodeOptions struct {
	// HeaderAliases renames source headers (e.g. "Latitude") to the tag
	// name used by the target struct (e.g. "lat").
	HeaderAliases map[string]string
	// Required column names, after aliasing. Checked before any row is read.
	Required []string
}

// ParseDelimited splits text into header-keyed records using delim.
// Blank lines are skipped and short or long rows are fitted to the header.
func ParseDelimited(text string, delim rune) ([]Record, error) {
	r := NewDelimitedReaderWith(text, delim)

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+1, err)
		}
		rec := make(Record, len(header))
		for i, name := range header {
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Decode reads the header from r, applies opts and decodes every remaining
// row into a T through its `csv:"..."` tags.
func Decode[T any](r RowReader, opts DecodeOptions) ([]T, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	header = aliasHeader(header, opts.HeaderAliases)

	if missing := missingColumns(header, opts.Required); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	decoder, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	var rows []T
	for {
		var row T
		err := decoder.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readHeader(r RowReader) ([]string, error) {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}
	return out, nil
}

// aliasHeader renames aliased columns and gives blank or repeated names a
// unique placeholder so the decoder accepts the header.
func aliasHeader(header []string, aliases map[string]string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if alias, ok := aliases[h]; ok {
			h = alias
		}
		if h == "" || seen[h] {
			h = fmt.Sprintf("__column_%d", i)
		}
		seen[h] = true
		out[i] = h
	}
	return out
}

func missingColumns(header, required []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
