package importer

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Delimiters(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    int
	}{
		{
			name:        "comma delimited",
			input:       "Nombre,Marca\nTaladro,Bosch\n",
			wantHeaders: []string{"Nombre", "Marca"},
			wantRows:    1,
		},
		{
			name:        "semicolon delimited",
			input:       "Nombre;Marca\nTaladro;Bosch\n",
			wantHeaders: []string{"Nombre", "Marca"},
			wantRows:    1,
		},
		{
			name: "semicolon wins over comma anywhere in the file",
			// The header uses commas but one cell contains a semicolon,
			// so the whole file splits on semicolons.
			input:       "Nombre,Marca\nTaladro percutor; 800W,Bosch\n",
			wantHeaders: []string{"Nombre,Marca"},
			wantRows:    1,
		},
		{
			name:        "BOM stripped before header",
			input:       "\uFEFFNombre,Marca\nTaladro,Bosch\n",
			wantHeaders: []string{"Nombre", "Marca"},
			wantRows:    1,
		},
		{
			name:        "CRLF line endings leave trailing CR trimmed by field trim",
			input:       "Nombre,Marca\r\nTaladro,Bosch\r\n",
			wantHeaders: []string{"Nombre", "Marca"},
			wantRows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, rows, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(headers, tt.wantHeaders) {
				t.Errorf("headers = %v, want %v", headers, tt.wantHeaders)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("len(rows) = %d, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\n  \n"},
		{"header only", "Nombre;Marca\n"},
		{"header plus blank lines", "Nombre;Marca\n\n\n"},
		{"header plus all-empty rows", "Nombre;Marca\n;;\n ; \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.input)
			if !errors.Is(err, ErrEmptyCSV) {
				t.Errorf("Parse() error = %v, want ErrEmptyCSV", err)
			}
		})
	}
}

func TestParse_Rows(t *testing.T) {
	input := "Nombre;Cantidad\nTaladro;2\n\nSierra;1\n;\nLijadora;3\n"

	_, rows, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Blank and all-empty lines are dropped; surviving rows are numbered
	// by their position among the data lines, not among survivors.
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	wantNames := map[int]string{1: "Taladro", 2: "Sierra", 4: "Lijadora"}
	for _, row := range rows {
		want, ok := wantNames[row.Line]
		if !ok {
			t.Errorf("unexpected row line %d", row.Line)
			continue
		}
		if got := row.Values["Nombre"]; got != want {
			t.Errorf("row %d Nombre = %q, want %q", row.Line, got, want)
		}
	}
}

func TestParse_Quotes(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"symmetric quotes stripped", `"Taladro"`, "Taladro"},
		{"inner whitespace trimmed after stripping", `" Taladro "`, "Taladro"},
		{"leading quote only kept", `"Taladro`, `"Taladro`},
		{"trailing quote only kept", `Taladro"`, `Taladro"`},
		{"only outer pair stripped", `""Taladro""`, `"Taladro"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rows, err := Parse("Nombre\n" + tt.field + "\n")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := rows[0].Values["Nombre"]; got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_ShortRowPadsEmpty(t *testing.T) {
	_, rows, err := Parse("Nombre;Marca;Modelo\nTaladro;Bosch\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := rows[0].Values["Modelo"]; got != "" {
		t.Errorf("missing trailing field = %q, want empty", got)
	}
}

func TestParse_Deterministic(t *testing.T) {
	input := "\uFEFFNombre;Marca\n\"Taladro\";Bosch\n\nSierra;Makita\n"

	h1, r1, err1 := Parse(input)
	h2, r2, err2 := Parse(input)
	if err1 != nil || err2 != nil {
		t.Fatalf("Parse() errors = %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(h1, h2) || !reflect.DeepEqual(r1, r2) {
		t.Error("Parse() is not deterministic for identical input")
	}
}

func TestParse_InvalidUTF8Sanitized(t *testing.T) {
	_, rows, err := Parse("Nombre\nTal\xffdro\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := rows[0].Values["Nombre"]; got != "Tal\uFFFDdro" {
		t.Errorf("value = %q, want replacement rune in place of invalid byte", got)
	}
}
