package importer

import "strings"

// TemplateFilename is the download name for the import template.
const TemplateFilename = "plantilla_activos.csv"

// templateRows are the example rows shipped with the template: a
// standard asset, an EPI asset (routed to the EPI collection, code
// auto-generated) and a quantity-bearing asset.
var templateRows = [][]string{
	{
		"Portátil Dell Latitude 5520", "INV-0001", "Informática", "Dell", "Latitude 5520",
		"SN-4471-B", "Oficina Madrid", "Activo", "Laura Gómez", "TechSupply SL",
		"1", "899.00", "2024-03-15", "2027-03-15", "180",
		"Portátil de trabajo", "Incluye base de carga",
	},
	{
		"Casco de seguridad", "", "EPI", "3M", "H-700",
		"", "Almacén central", "Activo", "", "Suministros Vega",
		"1", "12.50", "2024-01-10", "2026-01-10", "90",
		"Casco homologado EN 397", "Talla única",
	},
	{
		"Silla de oficina", "INV-0002", "Mobiliario", "Ofiprix", "Ergo 200",
		"", "Oficina Valencia", "Activo", "", "",
		"12", "85.90", "2023-11-02", "", "365",
		"", "Lote planta 2",
	},
}

// templateNotes are human-readable lines appended after the example rows.
// They are plain quoted CSV lines, never machine-parsed, and must be
// removed before the file is re-uploaded as import input.
var templateNotes = []string{
	"Nota: elimine estas líneas de notas antes de importar el archivo.",
	"El campo Nombre es obligatorio; el resto de columnas son opcionales.",
	"Las fechas usan el formato AAAA-MM-DD y los precios admiten decimales con punto o coma.",
	"Una fila con Categoría EPI se registra en el inventario de EPIs y recibe un código automático si no se indica uno.",
}

// Template renders the downloadable CSV import template: UTF-8 BOM,
// semicolon delimiter, the 17 canonical columns, three example rows and
// the trailing notes.
func Template() []byte {
	var b strings.Builder
	b.WriteString("\uFEFF")

	headers := make([]string, 0, len(catalog))
	for _, f := range catalog {
		h := f.Label
		if i := strings.Index(h, "("); i >= 0 {
			h = strings.TrimSpace(h[:i])
		}
		headers = append(headers, h)
	}
	b.WriteString(strings.Join(headers, ";"))
	b.WriteString("\n")

	for _, row := range templateRows {
		b.WriteString(strings.Join(row, ";"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, note := range templateNotes {
		b.WriteString(`"` + note + `"`)
		b.WriteString("\n")
	}

	return []byte(b.String())
}
