package importer

// convert.go holds the typed-value parsers shared by the validator and
// the importer. Both stages must agree on what parses: a value accepted
// during validation can never be reinterpreted or rejected at import
// time, which is why there is exactly one date parser here.

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts covers ISO dates plus the day-first forms spreadsheets in
// es locales produce.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006/01/02",
	"02.01.2006",
}

// ParseDate parses a calendar date in ISO or day-first form.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseInt parses a base-10 integer, tolerating surrounding whitespace.
func ParseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDecimal parses a real number, accepting both "12.50" and the
// comma decimal separator common in semicolon-delimited files ("12,50").
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
	}
	return f, true
}
