// tabular/xlsx_reader.go
package tabular

import (
	"fmt"
	"io"
	"log"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook returns the rows of the first sheet of an XLSX workbook.
// Cells come back as their formatted text, so the result can be fed to
// NewSliceReader exactly like a parsed CSV.
func ReadWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("WARN Tabular: closing workbook: %v", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
