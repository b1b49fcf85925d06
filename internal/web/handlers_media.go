package web

import "net/http"

// handleMediaURL resolves a stored image reference into a fetchable URL.
// Answers {"url": ""} when no candidate yields one; clients render their
// placeholder instead of treating it as an error.
func (s *Server) handleMediaURL(w http.ResponseWriter, r *http.Request) {
	stored := r.URL.Query().Get("ruta")
	if stored == "" {
		writeError(w, r, http.StatusBadRequest, "falta el parámetro \"ruta\"")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.resolver.Resolve(r.Context(), stored),
	})
}

// handleMediaThumbnail resolves a stored image reference into a resized
// public URL for list views.
func (s *Server) handleMediaThumbnail(w http.ResponseWriter, r *http.Request) {
	stored := r.URL.Query().Get("ruta")
	if stored == "" {
		writeError(w, r, http.StatusBadRequest, "falta el parámetro \"ruta\"")
		return
	}
	width := parseIntOr(r.URL.Query().Get("ancho"), thumbnailWidth)
	quality := parseIntOr(r.URL.Query().Get("calidad"), thumbnailQuality)

	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.resolver.Thumbnail(r.Context(), stored, width, quality),
	})
}
