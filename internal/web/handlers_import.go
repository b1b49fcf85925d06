package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/invenlab/activos/internal/importer"
	"github.com/invenlab/activos/internal/logging"
)

// fieldJSON is the wire form of one canonical field.
type fieldJSON struct {
	Name     string `json:"nombre"`
	Label    string `json:"etiqueta"`
	Required bool   `json:"obligatorio"`
	Type     string `json:"tipo"`
}

func fieldTypeString(t importer.FieldType) string {
	switch t {
	case importer.FieldNumber:
		return "numero"
	case importer.FieldDate:
		return "fecha"
	default:
		return "texto"
	}
}

func catalogJSON() []fieldJSON {
	fields := importer.Catalog()
	out := make([]fieldJSON, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldJSON{
			Name:     f.Name,
			Label:    f.Label,
			Required: f.Required,
			Type:     fieldTypeString(f.Type),
		})
	}
	return out
}

// handleImportFields returns the canonical field catalog the mapping UI
// offers as targets.
func (s *Server) handleImportFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"campos": catalogJSON()})
}

// handleImportTemplate serves the downloadable CSV template.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+importer.TemplateFilename+`"`)
	w.Write(importer.Template())
}

// readImportUpload extracts the CSV text and optional field mapping from
// a multipart upload. The mapping arrives as a JSON object in the
// "mapping" form value; when absent, nil is returned and the caller
// auto-maps.
func (s *Server) readImportUpload(r *http.Request) (text string, mapping importer.FieldMapping, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		return "", nil, errors.New("no se pudo leer el archivo subido")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("falta el archivo CSV (campo \"file\")")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", nil, errors.New("no se pudo leer el archivo subido")
	}

	if m := r.FormValue("mapping"); m != "" {
		if err := json.Unmarshal([]byte(m), &mapping); err != nil {
			return "", nil, errors.New("el mapeo de columnas no es un objeto JSON válido")
		}
	}

	return string(raw), mapping, nil
}

// previewResponse summarizes an uploaded file before validation: its
// headers, the proposed mapping and a handful of sample rows.
type previewResponse struct {
	Headers  []string              `json:"cabeceras"`
	Mapping  importer.FieldMapping `json:"mapeo"`
	Fields   []fieldJSON           `json:"campos"`
	Total    int                   `json:"total"`
	Sample   []map[string]string   `json:"muestra"`
	Warnings []string              `json:"avisos,omitempty"`
}

const previewSampleSize = 5

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	text, mapping, err := s.readImportUpload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	headers, rows, err := importer.Parse(text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if mapping == nil {
		mapping = importer.AutoMap(headers)
	}

	resp := previewResponse{
		Headers: headers,
		Mapping: mapping,
		Fields:  catalogJSON(),
		Total:   len(rows),
	}
	for _, row := range rows {
		if len(resp.Sample) == previewSampleSize {
			break
		}
		resp.Sample = append(resp.Sample, row.Values)
	}
	if mapping.Header("name") == "" {
		resp.Warnings = append(resp.Warnings,
			"ninguna columna se corresponde con el campo obligatorio Nombre")
	}

	writeJSON(w, http.StatusOK, resp)
}

// validateResponse reports the outcome of dry-run validation.
type validateResponse struct {
	Total    int                   `json:"total"`
	Valid    int                   `json:"validos"`
	Errors   []importer.RowError   `json:"errores"`
	Warnings []importer.RowWarning `json:"avisos"`
	Mapping  importer.FieldMapping `json:"mapeo"`
}

func (s *Server) handleImportValidate(w http.ResponseWriter, r *http.Request) {
	text, mapping, err := s.readImportUpload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	headers, rows, err := importer.Parse(text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if mapping == nil {
		mapping = importer.AutoMap(headers)
	}

	cats, err := s.importer.NewRunCache(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rep := importer.NewValidator(mapping, cats).Validate(rows)

	writeJSON(w, http.StatusOK, validateResponse{
		Total:    len(rows),
		Valid:    len(rep.Valid),
		Errors:   emptyIfNil(rep.Errors),
		Warnings: emptyIfNil(rep.Warnings),
		Mapping:  mapping,
	})
}

// importResponse combines the validation report with the persistence
// result of one import run.
type importResponse struct {
	Total    int                   `json:"total"`
	Errors   []importer.RowError   `json:"errores"`
	Warnings []importer.RowWarning `json:"avisos"`
	Result   importer.Result       `json:"resultado"`
}

// handleImport runs the full pipeline: parse, map, validate, persist.
// The run executes synchronously inside this request; the limiter caps
// how many requests may be importing at once.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, mapping, err := s.readImportUpload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	headers, rows, err := importer.Parse(text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if mapping == nil {
		mapping = importer.AutoMap(headers)
	}
	if mapping.Header("name") == "" {
		writeError(w, r, http.StatusBadRequest,
			"debe asignar una columna al campo obligatorio Nombre")
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	cats, err := s.importer.NewRunCache(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rep := importer.NewValidator(mapping, cats).Validate(rows)
	userEmail := r.Header.Get("X-User-Email")

	logging.FromContext(r.Context()).Info("import started",
		"rows", len(rows),
		"valid", len(rep.Valid),
		"invalid", len(rep.Errors),
		"user", userEmail,
	)

	result := s.importer.Run(r.Context(), rep.Valid, mapping, cats, userEmail)

	writeJSON(w, http.StatusOK, importResponse{
		Total:    len(rows),
		Errors:   emptyIfNil(rep.Errors),
		Warnings: emptyIfNil(rep.Warnings),
		Result:   result,
	})
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// parseIntOr parses a query parameter with a fallback.
func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
