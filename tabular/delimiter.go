// tabular/delimiter.go
package tabular

import "strings"

// DetectDelimiter picks the field separator from the first line of sample.
// Semicolon wins ties: French spreadsheet exports use ';' because ',' is the
// decimal separator, so a line with neither (or as many of each) is read as ';'.
func DetectDelimiter(sample string) rune {
	line := sample
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSuffix(line, "\r")

	if strings.Count(line, ";") >= strings.Count(line, ",") {
		return ';'
	}
	return ','
}
