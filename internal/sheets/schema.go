package sheets

import (
	"fmt"
	"strings"
)

// Schema is the fixed header of a tab together with a header→column table.
type Schema struct {
	Name    string
	Headers []string
	index   map[string]int
}

// NewSchema builds the column table for a tab. It panics on duplicate
// headers, since schemas are package-level definitions.
func NewSchema(name string, headers ...string) Schema {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			panic(fmt.Sprintf("sheets: duplicate header %q in schema %q", h, name))
		}
		index[h] = i + 1
	}
	return Schema{Name: name, Headers: headers, index: index}
}

// Column returns the 1-based column number of header.
func (s Schema) Column(header string) (int, bool) {
	col, ok := s.index[header]
	return col, ok
}

func (s Schema) Width() int {
	return len(s.Headers)
}

// Row materializes fields into header order. Headers missing from fields
// become "". A field naming an unknown header is an error.
func (s Schema) Row(fields map[string]interface{}) ([]interface{}, error) {
	row := make([]interface{}, len(s.Headers))
	for i := range row {
		row[i] = ""
	}
	for header, value := range fields {
		col, ok := s.index[header]
		if !ok {
			return nil, fmt.Errorf("tab %q has no column %q", s.Name, header)
		}
		if value == nil {
			value = ""
		}
		row[col-1] = value
	}
	return row, nil
}

// Matches reports whether a live header row equals the schema headers.
// Trailing blank cells on the live row are ignored.
func (s Schema) Matches(live []string) bool {
	for len(live) > 0 && strings.TrimSpace(live[len(live)-1]) == "" {
		live = live[:len(live)-1]
	}
	if len(live) != len(s.Headers) {
		return false
	}
	for i, h := range s.Headers {
		if strings.TrimSpace(live[i]) != h {
			return false
		}
	}
	return true
}

// quoteTab renders a tab name for use in A1 notation.
func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter converts a 1-based column number to its A1 letters.
func columnLetter(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

func cellRange(tab string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", quoteTab(tab), columnLetter(col), row)
}
