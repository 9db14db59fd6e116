package prompt

import (
	"encoding/csv"
	"errors"
	"strings"
	"unicode/utf8"
)

var errEmptyCSV = errors.New("csv: no columns to parse")

// RenderCSVTable parses data as CSV (first row is the header) and lays it
// out as a plain-text table with right-aligned columns separated by two
// spaces. Rows with a different field count than the header are an error.
func RenderCSVTable(data string) (string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return "", err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return "", errEmptyCSV
	}

	widths := make([]int, len(records[0]))
	for _, rec := range records {
		for i, cell := range rec {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	for row, rec := range records {
		if row > 0 {
			b.WriteByte('\n')
		}
		for i, cell := range rec {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			b.WriteString(cell)
		}
	}
	return b.String(), nil
}
