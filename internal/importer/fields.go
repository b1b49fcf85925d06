package importer

import "strings"

// FieldType is the declared value type of a canonical field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldDate
)

// Field describes one canonical asset attribute that CSV columns map onto.
type Field struct {
	Name     string
	Label    string
	Required bool
	Type     FieldType
}

// catalog is the fixed set of canonical fields, in display order.
// Only "name" is required; everything else is optional.
var catalog = []Field{
	{Name: "name", Label: "Nombre", Required: true, Type: FieldText},
	{Name: "codigo", Label: "Código", Type: FieldText},
	{Name: "category", Label: "Categoría", Type: FieldText},
	{Name: "brand", Label: "Marca", Type: FieldText},
	{Name: "model", Label: "Modelo", Type: FieldText},
	{Name: "serial", Label: "Número de serie", Type: FieldText},
	{Name: "location", Label: "Ubicación", Type: FieldText},
	{Name: "status", Label: "Estado", Type: FieldText},
	{Name: "assigned_to", Label: "Asignado a", Type: FieldText},
	{Name: "supplier", Label: "Proveedor", Type: FieldText},
	{Name: "quantity", Label: "Cantidad", Type: FieldNumber},
	{Name: "precio_compra", Label: "Precio de compra (EUR)", Type: FieldNumber},
	{Name: "fecha_compra", Label: "Fecha de compra", Type: FieldDate},
	{Name: "fecha_garantia", Label: "Fecha de garantía", Type: FieldDate},
	{Name: "maintenance_frequency", Label: "Frecuencia de mantenimiento (días)", Type: FieldNumber},
	{Name: "description", Label: "Descripción", Type: FieldText},
	{Name: "notes", Label: "Observaciones", Type: FieldText},
}

// Catalog returns the canonical field catalog.
func Catalog() []Field {
	return catalog
}

// FieldMapping associates canonical field names with CSV headers.
// An absent or empty entry means the field is not mapped.
type FieldMapping map[string]string

// Header returns the CSV header mapped to the given field, or "".
func (m FieldMapping) Header(field string) string { return m[field] }

// AutoMap proposes a FieldMapping for the given CSV headers.
//
// For each header, canonical fields are tested in catalog order and the
// first field not yet mapped that matches wins. A header matches a field
// when the folded header contains the field name, when the field's label
// (text before any parenthetical) contains the header, or on exact
// equality with either. Matching folds case and Spanish diacritics so
// "Categoria" and "Categoría" behave the same.
//
// The result is advisory: the operator may override any entry, and the
// mapper never forces a choice for the required name field.
func AutoMap(headers []string) FieldMapping {
	mapping := make(FieldMapping)
	taken := make(map[string]bool)

	for _, header := range headers {
		h := fold(header)
		if h == "" {
			continue
		}
		for _, f := range catalog {
			if taken[f.Name] {
				continue
			}
			if headerMatches(h, f) {
				mapping[f.Name] = header
				taken[f.Name] = true
				break
			}
		}
	}
	return mapping
}

func headerMatches(h string, f Field) bool {
	name := fold(f.Name)
	base := labelBase(f.Label)
	if h == name || h == base {
		return true
	}
	if strings.Contains(h, name) {
		return true
	}
	return strings.Contains(base, h)
}

// labelBase folds the label text before any parenthetical,
// e.g. "Precio de compra (EUR)" -> "precio de compra".
func labelBase(label string) string {
	if i := strings.Index(label, "("); i >= 0 {
		label = label[:i]
	}
	return fold(label)
}

var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// fold lowercases, trims and strips Spanish diacritics for comparison.
func fold(s string) string {
	return diacriticFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
