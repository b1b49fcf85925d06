// Package web provides the HTTP server and JSON API for the inventory
// import service.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/invenlab/activos/internal/config"
	"github.com/invenlab/activos/internal/functions"
	"github.com/invenlab/activos/internal/importer"
	"github.com/invenlab/activos/internal/store"
	"github.com/invenlab/activos/internal/web/middleware"
)

// Store is the persistence surface the handlers consume.
// *store.Postgres satisfies it; tests substitute a fake.
type Store interface {
	ListAssets(ctx context.Context, q store.ListQuery) ([]store.Asset, error)
	CountAssets(ctx context.Context, filters []store.Filter) (int64, error)
	GetAsset(ctx context.Context, id string) (store.Asset, error)
	InsertAsset(ctx context.Context, a store.AssetParams) (string, error)
	UpdateAsset(ctx context.Context, id string, a store.AssetParams) error
	DeleteAsset(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]store.Category, error)
	CreateCategory(ctx context.Context, name string) (store.Category, error)
	InsertAuditEntry(ctx context.Context, e store.AuditEntryParams) error
}

// Resolver turns stored image references into fetchable URLs.
// *storage.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, stored string) string
	Thumbnail(ctx context.Context, stored string, width, quality int) string
}

// Server is the HTTP server for the inventory API.
type Server struct {
	cfg       *config.Config
	store     Store
	importer  *importer.Importer
	limiter   *importer.RunLimiter
	resolver  Resolver
	functions *functions.Client

	router *chi.Mux
	server *http.Server
}

// NewServer wires the API surface over the given collaborators.
func NewServer(cfg *config.Config, st Store, imp *importer.Importer, limiter *importer.RunLimiter, resolver Resolver, fns *functions.Client) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		importer:  imp,
		limiter:   limiter,
		resolver:  resolver,
		functions: fns,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}

	s.router.Use(middleware.APIKeyAuth(&s.cfg.Security))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Import pipeline
		r.Get("/import/template", s.handleImportTemplate)
		r.Get("/import/fields", s.handleImportFields)
		r.Post("/import/preview", s.handleImportPreview)
		r.Post("/import/validate", s.handleImportValidate)
		r.Post("/import", s.handleImport)

		// Asset CRUD and export
		r.Get("/assets", s.handleListAssets)
		r.Post("/assets", s.handleCreateAsset)
		r.Get("/assets/export", s.handleExportAssets)
		r.Get("/assets/{id}", s.handleGetAsset)
		r.Put("/assets/{id}", s.handleUpdateAsset)
		r.Delete("/assets/{id}", s.handleDeleteAsset)

		// Categories
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)

		// Stored media resolution
		r.Get("/media/url", s.handleMediaURL)
		r.Get("/media/thumbnail", s.handleMediaThumbnail)

		// Admin operations proxied to serverless functions
		r.Post("/admin/users", s.handleAdminCreateUser)
		r.Delete("/admin/users/{id}", s.handleAdminDeleteUser)
		r.Post("/admin/users/{id}/credentials", s.handleAdminSyncCredentials)
		r.Post("/admin/login-precheck", s.handleAdminLoginPrecheck)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "demasiadas peticiones, inténtelo de nuevo más tarde")
			return
		}

		next.ServeHTTP(w, r)
	})
}
