package importer

import (
	"strings"
	"testing"

	"github.com/invenlab/activos/internal/store"
)

func testMapping() FieldMapping {
	return FieldMapping{
		"name":                  "Nombre",
		"category":              "Categoría",
		"quantity":              "Cantidad",
		"precio_compra":         "Precio",
		"fecha_compra":          "Fecha de compra",
		"fecha_garantia":        "Fecha de garantía",
		"maintenance_frequency": "Frecuencia",
	}
}

func testCache() *CategoryCache {
	return NewCategoryCache([]store.Category{
		{ID: "c1", Name: "Informática"},
		{ID: "c2", Name: "EPI"},
	})
}

func row(line int, values map[string]string) ImportRow {
	return ImportRow{Line: line, Values: values}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		wantErr  string // substring of an expected error, "" for valid
		wantWarn bool
	}{
		{
			name:   "minimal valid row",
			values: map[string]string{"Nombre": "Taladro"},
		},
		{
			name:    "missing name",
			values:  map[string]string{"Nombre": "  "},
			wantErr: "nombre es obligatorio",
		},
		{
			name:     "unknown category warns but passes",
			values:   map[string]string{"Nombre": "Taladro", "Categoría": "Herramientas"},
			wantWarn: true,
		},
		{
			name:   "known category case-insensitive",
			values: map[string]string{"Nombre": "Portátil", "Categoría": "informática"},
		},
		{
			name:    "invalid purchase date",
			values:  map[string]string{"Nombre": "Taladro", "Fecha de compra": "ayer"},
			wantErr: "fecha inválida",
		},
		{
			name:    "invalid warranty date",
			values:  map[string]string{"Nombre": "Taladro", "Fecha de garantía": "2024-13-40"},
			wantErr: "fecha inválida",
		},
		{
			name:   "european date accepted",
			values: map[string]string{"Nombre": "Taladro", "Fecha de compra": "15/03/2024"},
		},
		{
			name:    "zero quantity",
			values:  map[string]string{"Nombre": "Taladro", "Cantidad": "0"},
			wantErr: "cantidad inválida",
		},
		{
			name:    "fractional quantity",
			values:  map[string]string{"Nombre": "Taladro", "Cantidad": "1.5"},
			wantErr: "cantidad inválida",
		},
		{
			name:    "negative price",
			values:  map[string]string{"Nombre": "Taladro", "Precio": "-5"},
			wantErr: "precio de compra inválido",
		},
		{
			name:   "zero price is fine",
			values: map[string]string{"Nombre": "Taladro", "Precio": "0"},
		},
		{
			name:   "comma decimal price",
			values: map[string]string{"Nombre": "Taladro", "Precio": "12,50"},
		},
		{
			name:    "zero maintenance frequency",
			values:  map[string]string{"Nombre": "Taladro", "Frecuencia": "0"},
			wantErr: "frecuencia de mantenimiento inválida",
		},
		{
			name:   "empty optional fields skip their rules",
			values: map[string]string{"Nombre": "Taladro", "Cantidad": "", "Precio": " ", "Fecha de compra": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(testMapping(), testCache())
			rep := v.Validate([]ImportRow{row(1, tt.values)})

			if tt.wantErr != "" {
				if len(rep.Errors) != 1 {
					t.Fatalf("Errors = %v, want one entry", rep.Errors)
				}
				found := false
				for _, m := range rep.Errors[0].Messages {
					if strings.Contains(m, tt.wantErr) {
						found = true
					}
				}
				if !found {
					t.Errorf("messages %v do not mention %q", rep.Errors[0].Messages, tt.wantErr)
				}
				if len(rep.Valid) != 0 {
					t.Errorf("row with errors also in Valid")
				}
				return
			}

			if len(rep.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", rep.Errors)
			}
			if len(rep.Valid) != 1 {
				t.Fatalf("Valid = %v, want one row", rep.Valid)
			}
			if tt.wantWarn != (len(rep.Warnings) > 0) {
				t.Errorf("warnings = %v, wantWarn %v", rep.Warnings, tt.wantWarn)
			}
		})
	}
}

func TestValidate_CollectsAllMessages(t *testing.T) {
	v := NewValidator(testMapping(), testCache())
	rep := v.Validate([]ImportRow{row(3, map[string]string{
		"Nombre":          "",
		"Cantidad":        "cero",
		"Precio":          "-1",
		"Fecha de compra": "??",
	})})

	if len(rep.Errors) != 1 {
		t.Fatalf("Errors = %v, want one entry", rep.Errors)
	}
	e := rep.Errors[0]
	if e.Line != 3 {
		t.Errorf("Line = %d, want 3", e.Line)
	}
	if len(e.Messages) != 4 {
		t.Errorf("Messages = %v, want 4 entries", e.Messages)
	}
}

func TestValidate_Partition(t *testing.T) {
	rows := []ImportRow{
		row(1, map[string]string{"Nombre": "Uno"}),
		row(2, map[string]string{"Nombre": ""}),
		row(3, map[string]string{"Nombre": "Tres", "Categoría": "Nueva"}),
		row(4, map[string]string{"Nombre": "Cuatro", "Cantidad": "-2"}),
	}

	rep := NewValidator(testMapping(), testCache()).Validate(rows)

	if got := len(rep.Valid) + len(rep.Errors); got != len(rows) {
		t.Errorf("Valid+Errors = %d, want %d (every row in exactly one bucket)", got, len(rows))
	}
	if len(rep.Valid) != 2 || len(rep.Errors) != 2 {
		t.Errorf("Valid = %d, Errors = %d, want 2 and 2", len(rep.Valid), len(rep.Errors))
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0].Line != 3 {
		t.Errorf("Warnings = %v, want one for line 3", rep.Warnings)
	}
}

func TestValidate_UnmappedFieldSkipsRule(t *testing.T) {
	// Without a mapping for quantity the rule never sees the cell, even
	// if the raw row carries a bogus value under some other header.
	mapping := FieldMapping{"name": "Nombre"}
	rep := NewValidator(mapping, testCache()).Validate([]ImportRow{
		row(1, map[string]string{"Nombre": "Taladro", "Cantidad": "muchas"}),
	})
	if len(rep.Errors) != 0 {
		t.Errorf("unexpected errors: %v", rep.Errors)
	}
}
