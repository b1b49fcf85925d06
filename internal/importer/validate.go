package importer

import (
	"fmt"
	"strings"
)

// RowError collects every hard validation failure for one row.
type RowError struct {
	Line     int               `json:"fila"`
	Messages []string          `json:"errores"`
	Raw      map[string]string `json:"datos,omitempty"`
}

// RowWarning is an informational message that does not exclude a row.
type RowWarning struct {
	Line    int    `json:"fila"`
	Message string `json:"aviso"`
}

// ValidatedRow is an ImportRow that passed every hard rule.
type ValidatedRow struct {
	Line   int
	Values map[string]string
}

// Report partitions the validated rows: every input row lands in exactly
// one of Valid or Errors. Warnings reference rows that remain in Valid.
type Report struct {
	Valid    []ValidatedRow
	Errors   []RowError
	Warnings []RowWarning
}

// Validator checks mapped rows against the canonical field rules.
type Validator struct {
	mapping FieldMapping
	cats    *CategoryCache
}

// NewValidator creates a validator for the given mapping and category
// cache. The mapping must not change while validation runs.
func NewValidator(mapping FieldMapping, cats *CategoryCache) *Validator {
	return &Validator{mapping: mapping, cats: cats}
}

// Validate runs every rule on every row. All applicable rules run even
// after a failure, so one row can accumulate several messages. A row goes
// to Errors if and only if at least one hard rule fails; an unknown
// category alone only produces a warning, because the importer creates
// the category on the fly.
func (v *Validator) Validate(rows []ImportRow) Report {
	var rep Report
	for _, row := range rows {
		msgs, warns := v.checkRow(row)
		if len(msgs) > 0 {
			rep.Errors = append(rep.Errors, RowError{Line: row.Line, Messages: msgs, Raw: row.Values})
			continue
		}
		rep.Valid = append(rep.Valid, ValidatedRow{Line: row.Line, Values: row.Values})
		for _, w := range warns {
			rep.Warnings = append(rep.Warnings, RowWarning{Line: row.Line, Message: w})
		}
	}
	return rep
}

// value returns the trimmed cell the mapping assigns to field, or "".
func (v *Validator) value(row ImportRow, field string) string {
	header := v.mapping.Header(field)
	if header == "" {
		return ""
	}
	return strings.TrimSpace(row.Values[header])
}

func (v *Validator) checkRow(row ImportRow) (msgs, warns []string) {
	if v.value(row, "name") == "" {
		msgs = append(msgs, "el nombre es obligatorio")
	}

	if cat := v.value(row, "category"); cat != "" && v.cats != nil && !v.cats.Contains(cat) {
		warns = append(warns, fmt.Sprintf("la categoría %q no existe y se creará automáticamente", cat))
	}

	for _, field := range []string{"fecha_compra", "fecha_garantia"} {
		if raw := v.value(row, field); raw != "" {
			if _, ok := ParseDate(raw); !ok {
				msgs = append(msgs, fmt.Sprintf("fecha inválida en %s: %q", fieldLabel(field), raw))
			}
		}
	}

	if raw := v.value(row, "quantity"); raw != "" {
		if n, ok := ParseInt(raw); !ok || n < 1 {
			msgs = append(msgs, fmt.Sprintf("cantidad inválida: %q (debe ser un entero mayor o igual que 1)", raw))
		}
	}

	if raw := v.value(row, "precio_compra"); raw != "" {
		if f, ok := ParseDecimal(raw); !ok || f < 0 {
			msgs = append(msgs, fmt.Sprintf("precio de compra inválido: %q (debe ser un número no negativo)", raw))
		}
	}

	if raw := v.value(row, "maintenance_frequency"); raw != "" {
		if n, ok := ParseInt(raw); !ok || n < 1 {
			msgs = append(msgs, fmt.Sprintf("frecuencia de mantenimiento inválida: %q (debe ser un entero mayor o igual que 1)", raw))
		}
	}

	return msgs, warns
}

func fieldLabel(name string) string {
	for _, f := range catalog {
		if f.Name == name {
			return labelBase(f.Label)
		}
	}
	return name
}
