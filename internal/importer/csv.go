package importer

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrEmptyCSV is returned when a file yields no headers or no data rows
// after filtering. The caller must abort the import without persisting
// anything.
var ErrEmptyCSV = errors.New("el archivo CSV está vacío o mal formado")

// ImportRow is one raw CSV data row keyed by header, tagged with its
// 1-based row number (header excluded).
type ImportRow struct {
	Line   int
	Values map[string]string
}

// Parse tokenizes raw CSV text into headers and rows.
//
// A leading UTF-8 BOM is stripped before anything else. The delimiter is
// chosen once for the whole file: semicolon if the text contains one
// anywhere, comma otherwise. Lines split on LF; lines that are empty
// after trimming are discarded, and data rows whose every field is empty
// are skipped. One symmetric pair of double quotes is stripped per field.
//
// Delimiters embedded inside quoted fields are not supported; the parser
// targets the app's own template format, not full RFC 4180.
func Parse(text string) ([]string, []ImportRow, error) {
	text = sanitizeUTF8(text)
	text = strings.TrimPrefix(text, "\uFEFF")

	delim := ","
	if strings.Contains(text, ";") {
		delim = ";"
	}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, nil, ErrEmptyCSV
	}

	headers := splitLine(lines[0], delim)
	if allEmpty(headers) {
		return nil, nil, ErrEmptyCSV
	}

	var rows []ImportRow
	for i, line := range lines[1:] {
		fields := splitLine(line, delim)
		if allEmpty(fields) {
			continue
		}
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(fields) {
				values[h] = fields[j]
			} else {
				values[h] = ""
			}
		}
		rows = append(rows, ImportRow{Line: i + 1, Values: values})
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyCSV
	}
	return headers, rows, nil
}

func splitLine(line, delim string) []string {
	parts := strings.Split(line, delim)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = stripQuotes(strings.TrimSpace(p))
	}
	return out
}

// stripQuotes removes one leading and one trailing double quote when both
// are present, then trims again.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD so every
// downstream consumer sees valid UTF-8.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
