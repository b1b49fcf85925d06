package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/invenlab/activos/internal/functions"
)

// bearerToken extracts the caller's bearer credential so it can be
// forwarded to the serverless functions, which do their own
// authorization. The API never mints credentials of its own here.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req functions.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email y contraseña son obligatorios")
		return
	}

	out, err := s.functions.CreateUser(r.Context(), bearerToken(r), req)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.functions.DeleteUser(r.Context(), bearerToken(r), id); err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": "eliminado"})
}

func (s *Server) handleAdminSyncCredentials(w http.ResponseWriter, r *http.Request) {
	var req functions.SyncCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	req.UserID = chi.URLParam(r, "id")

	if err := s.functions.SyncCredentials(r.Context(), bearerToken(r), req); err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": "sincronizado"})
}

func (s *Server) handleAdminLoginPrecheck(w http.ResponseWriter, r *http.Request) {
	var req functions.PrecheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	if req.IP == "" {
		req.IP = r.RemoteAddr
	}

	out, err := s.functions.LoginPrecheck(r.Context(), bearerToken(r), req)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}
