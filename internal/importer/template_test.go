package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/invenlab/activos/internal/store"
)

func TestTemplate_RoundTrips(t *testing.T) {
	text := string(Template())

	if !strings.HasPrefix(text, "\uFEFF") {
		t.Error("template does not start with a UTF-8 BOM")
	}

	headers, rows, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(template) error = %v", err)
	}
	if len(headers) != len(catalog) {
		t.Fatalf("template has %d headers, want %d", len(headers), len(catalog))
	}

	// Every template header must auto-map onto its own field, in order.
	mapping := AutoMap(headers)
	if len(mapping) != len(catalog) {
		t.Fatalf("auto-mapped %d of %d fields: %v", len(mapping), len(catalog), mapping)
	}
	for i, f := range catalog {
		if got := mapping.Header(f.Name); got != headers[i] {
			t.Errorf("field %q mapped to %q, want %q", f.Name, got, headers[i])
		}
	}

	// The example rows validate cleanly against a cache that already
	// knows their categories.
	cats := NewCategoryCache(nil)
	for _, row := range rows[:len(templateRows)] {
		if name := row.Values[mapping.Header("category")]; name != "" {
			cats.Add(store.Category{Name: name})
		}
	}
	rep := NewValidator(mapping, cats).Validate(rows[:len(templateRows)])
	if len(rep.Errors) != 0 {
		t.Errorf("template rows have validation errors: %v", rep.Errors)
	}
	if len(rep.Valid) != len(templateRows) {
		t.Errorf("Valid = %d, want %d", len(rep.Valid), len(templateRows))
	}
}

func TestTemplate_ImportsEndToEnd(t *testing.T) {
	// The three example rows, re-uploaded as-is (notes removed per the
	// template's own instructions), import without a single failure and
	// the EPI row lands in the EPI collection.
	headers, rows, err := Parse(string(Template()))
	if err != nil {
		t.Fatalf("Parse(template) error = %v", err)
	}
	mapping := AutoMap(headers)

	fs := &fakeStore{}
	cats := NewCategoryCache(nil)
	rep := NewValidator(mapping, cats).Validate(rows[:len(templateRows)])
	if len(rep.Errors) != 0 {
		t.Fatalf("validation errors: %v", rep.Errors)
	}

	res := New(fs, DefaultBatchSize).Run(context.Background(), rep.Valid, mapping, cats, "")

	if res.Status != "success" || len(res.Imported) != len(templateRows) {
		t.Fatalf("result = %+v", res)
	}
	if len(fs.epiAssets) != 1 || len(fs.assets) != 2 {
		t.Errorf("epi %d, general %d, want 1 and 2", len(fs.epiAssets), len(fs.assets))
	}
	if !strings.HasPrefix(fs.epiAssets[0].Code, "EPI-") {
		t.Errorf("EPI code = %q", fs.epiAssets[0].Code)
	}
}

func TestTemplate_NotesAreQuotedTrailers(t *testing.T) {
	text := string(Template())

	for _, note := range templateNotes {
		if !strings.Contains(text, `"`+note+`"`) {
			t.Errorf("note %q missing or unquoted", note)
		}
	}

	// Notes come after the example rows, separated by a blank line.
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	wantLines := 1 + len(templateRows) + 1 + len(templateNotes)
	if len(lines) != wantLines {
		t.Errorf("template has %d lines, want %d", len(lines), wantLines)
	}
}
