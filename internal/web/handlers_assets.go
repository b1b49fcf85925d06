package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/invenlab/activos/internal/importer"
	"github.com/invenlab/activos/internal/logging"
	"github.com/invenlab/activos/internal/store"
)

// assetJSON is the wire form of one asset row.
type assetJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"nombre"`
	Code          *string  `json:"codigo"`
	Category      *string  `json:"categoria"`
	Brand         *string  `json:"marca"`
	Model         *string  `json:"modelo"`
	Serial        *string  `json:"numeroSerie"`
	Location      *string  `json:"ubicacion"`
	Status        string   `json:"estado"`
	AssignedTo    *string  `json:"asignadoA"`
	Supplier      *string  `json:"proveedor"`
	Quantity      int      `json:"cantidad"`
	PrecioCompra  *float64 `json:"precioCompra"`
	FechaCompra   *string  `json:"fechaCompra"`
	FechaGarantia *string  `json:"fechaGarantia"`
	MaintFreq     *int     `json:"frecuenciaMantenimiento"`
	Description   *string  `json:"descripcion"`
	Notes         *string  `json:"observaciones"`
	ImageURL      *string  `json:"imagenUrl"`
	CreatedAt     string   `json:"creadoEl"`
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func datePtr(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format("2006-01-02")
	return &s
}

func numericPtr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	v, err := n.Float64Value()
	if err != nil || !v.Valid {
		return nil
	}
	return &v.Float64
}

func int4Ptr(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

func toAssetJSON(a store.Asset, imageURL string) assetJSON {
	out := assetJSON{
		ID:            a.ID,
		Name:          a.Name,
		Code:          textPtr(a.Code),
		Category:      textPtr(a.Category),
		Brand:         textPtr(a.Brand),
		Model:         textPtr(a.Model),
		Serial:        textPtr(a.Serial),
		Location:      textPtr(a.Location),
		Status:        a.Status,
		AssignedTo:    textPtr(a.AssignedTo),
		Supplier:      textPtr(a.Supplier),
		Quantity:      a.Quantity,
		PrecioCompra:  numericPtr(a.PrecioCompra),
		FechaCompra:   datePtr(a.FechaCompra),
		FechaGarantia: datePtr(a.FechaGarantia),
		MaintFreq:     int4Ptr(a.MaintFreq),
		Description:   textPtr(a.Description),
		Notes:         textPtr(a.Notes),
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
	if imageURL != "" {
		out.ImageURL = &imageURL
	}
	return out
}

// assetRequest is the JSON body for asset creation and update.
type assetRequest struct {
	Name          string   `json:"nombre"`
	Code          string   `json:"codigo"`
	Category      string   `json:"categoria"`
	Brand         string   `json:"marca"`
	Model         string   `json:"modelo"`
	Serial        string   `json:"numeroSerie"`
	Location      string   `json:"ubicacion"`
	Status        string   `json:"estado"`
	AssignedTo    string   `json:"asignadoA"`
	Supplier      string   `json:"proveedor"`
	Quantity      int      `json:"cantidad"`
	PrecioCompra  *float64 `json:"precioCompra"`
	FechaCompra   string   `json:"fechaCompra"`
	FechaGarantia string   `json:"fechaGarantia"`
	MaintFreq     int      `json:"frecuenciaMantenimiento"`
	Description   string   `json:"descripcion"`
	Notes         string   `json:"observaciones"`
	ImageURL      string   `json:"imagenUrl"`
}

func (req assetRequest) toParams() (store.AssetParams, error) {
	if strings.TrimSpace(req.Name) == "" {
		return store.AssetParams{}, fmt.Errorf("el nombre es obligatorio")
	}

	p := store.AssetParams{
		Name:        strings.TrimSpace(req.Name),
		Code:        store.TextOrNull(req.Code),
		Category:    store.TextOrNull(req.Category),
		Brand:       store.TextOrNull(req.Brand),
		Model:       store.TextOrNull(req.Model),
		Serial:      store.TextOrNull(req.Serial),
		Location:    store.TextOrNull(req.Location),
		Status:      strings.TrimSpace(req.Status),
		AssignedTo:  store.TextOrNull(req.AssignedTo),
		Supplier:    store.TextOrNull(req.Supplier),
		Quantity:    req.Quantity,
		MaintFreq:   store.Int4OrNull(req.MaintFreq),
		Description: store.TextOrNull(req.Description),
		Notes:       store.TextOrNull(req.Notes),
		ImageURL:    store.TextOrNull(req.ImageURL),
	}
	if p.Status == "" {
		p.Status = importer.DefaultStatus
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	if req.PrecioCompra != nil {
		if *req.PrecioCompra < 0 {
			return store.AssetParams{}, fmt.Errorf("el precio de compra no puede ser negativo")
		}
		p.PrecioCompra = store.NumericFromFloat(*req.PrecioCompra)
	}
	for _, d := range []struct {
		raw  string
		dst  *pgtype.Date
		name string
	}{
		{req.FechaCompra, &p.FechaCompra, "fechaCompra"},
		{req.FechaGarantia, &p.FechaGarantia, "fechaGarantia"},
	} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		t, ok := importer.ParseDate(d.raw)
		if !ok {
			return store.AssetParams{}, fmt.Errorf("fecha inválida en %s: %q", d.name, d.raw)
		}
		*d.dst = store.DateValue(t)
	}
	return p, nil
}

// listQueryFromRequest translates query parameters into a store query.
//
// Each listable column accepts an equality filter under its own name;
// "buscar" does a substring match on nombre, precio_min/precio_max bound
// precio_compra, and orden/dir/limite/desplazamiento shape the page.
func listQueryFromRequest(r *http.Request) store.ListQuery {
	qs := r.URL.Query()
	var q store.ListQuery

	for _, col := range []string{"codigo", "categoria", "marca", "modelo", "ubicacion", "estado", "asignado_a", "proveedor"} {
		if v := qs.Get(col); v != "" {
			q.Filters = append(q.Filters, store.Filter{Column: col, Op: store.OpEquals, Value: v})
		}
	}
	if v := qs.Get("buscar"); v != "" {
		q.Filters = append(q.Filters, store.Filter{Column: "nombre", Op: store.OpMatches, Value: v})
	}
	if v := qs.Get("precio_min"); v != "" {
		q.Filters = append(q.Filters, store.Filter{Column: "precio_compra", Op: store.OpGreaterEq, Value: v})
	}
	if v := qs.Get("precio_max"); v != "" {
		q.Filters = append(q.Filters, store.Filter{Column: "precio_compra", Op: store.OpLessEq, Value: v})
	}

	q.OrderBy = qs.Get("orden")
	q.Descending = qs.Get("dir") == "desc"
	q.Limit = parseIntOr(qs.Get("limite"), 100)
	q.Offset = parseIntOr(qs.Get("desplazamiento"), 0)
	return q
}

const thumbnailWidth, thumbnailQuality = 200, 60

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	q := listQueryFromRequest(r)

	assets, err := s.store.ListAssets(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	total, err := s.store.CountAssets(r.Context(), q.Filters)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		thumb := ""
		if a.ImageURL.Valid {
			thumb = s.resolver.Thumbnail(r.Context(), a.ImageURL.String, thumbnailWidth, thumbnailQuality)
		}
		items = append(items, toAssetJSON(a, thumb))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activos": items,
		"total":   total,
	})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	img := ""
	if a.ImageURL.Valid {
		img = s.resolver.Resolve(r.Context(), a.ImageURL.String)
	}
	writeJSON(w, http.StatusOK, toAssetJSON(a, img))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	params, err := req.toParams()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.InsertAsset(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	params, err := req.toParams()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateAsset(r.Context(), chi.URLParam(r, "id"), params); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": "actualizado"})
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAsset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": "eliminado"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categorias": emptyIfNil(cats)})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"nombre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "el nombre de la categoría es obligatorio")
		return
	}

	cat, err := s.store.CreateCategory(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

const exportSheet = "Activos"

// handleExportAssets streams the filtered asset list as an XLSX workbook.
func (s *Server) handleExportAssets(w http.ResponseWriter, r *http.Request) {
	q := listQueryFromRequest(r)
	q.Limit = 0
	q.Offset = 0

	assets, err := s.store.ListAssets(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", exportSheet)

	headers := []string{
		"Nombre", "Código", "Categoría", "Marca", "Modelo", "Número de serie",
		"Ubicación", "Estado", "Asignado a", "Proveedor", "Cantidad",
		"Precio de compra", "Fecha de compra", "Fecha de garantía",
		"Frecuencia de mantenimiento", "Descripción", "Observaciones",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for rowIdx, a := range assets {
		values := []any{
			a.Name, textOr(a.Code), textOr(a.Category), textOr(a.Brand), textOr(a.Model),
			textOr(a.Serial), textOr(a.Location), a.Status, textOr(a.AssignedTo),
			textOr(a.Supplier), a.Quantity, floatOr(a.PrecioCompra),
			dateOr(a.FechaCompra), dateOr(a.FechaGarantia), intOr(a.MaintFreq),
			textOr(a.Description), textOr(a.Notes),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	filename := "activos_" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		// Headers already sent; nothing left but to log.
		logging.FromContext(r.Context()).Error("write xlsx export", "error", err)
	}
}

func textOr(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func floatOr(n pgtype.Numeric) any {
	if p := numericPtr(n); p != nil {
		return *p
	}
	return ""
}

func dateOr(d pgtype.Date) string {
	if p := datePtr(d); p != nil {
		return *p
	}
	return ""
}

func intOr(i pgtype.Int4) any {
	if p := int4Ptr(i); p != nil {
		return *p
	}
	return ""
}
