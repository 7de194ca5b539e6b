package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tansell/receipt-ledger/internal/credentials"
	"github.com/tansell/receipt-ledger/internal/pipeline"
	"github.com/tansell/receipt-ledger/internal/profile"
)

// Processor runs one upload through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, up pipeline.Upload) (*pipeline.Result, error)
}

// Server handles HTTP requests for uploads and profiles
type Server struct {
	processor Processor
	store     profile.Store
	journal   pipeline.Journal
	creds     credentials.Lookup
	mux       *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(processor Processor, store profile.Store, journal pipeline.Journal, creds credentials.Lookup) *Server {
	return NewServerWithMux(processor, store, journal, creds, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(processor Processor, store profile.Store, journal pipeline.Journal, creds credentials.Lookup, mux *http.ServeMux) *Server {
	s := &Server{
		processor: processor,
		store:     store,
		journal:   journal,
		creds:     creds,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// withUser authenticates the request with basic auth against the injected
// credential lookup and passes the username through. Every operation is
// scoped to the authenticated user; there is no session state.
func (s *Server) withUser(next func(w http.ResponseWriter, r *http.Request, username string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !s.creds.Authenticate(username, password) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Ledger"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, username)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes must be registered from most specific to least specific.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/profiles/{name}/total", s.withUser(s.handleTotalPrice))
	s.mux.HandleFunc("GET /api/profiles/{name}/export", s.withUser(s.handleExport))
	s.mux.HandleFunc("DELETE /api/profiles/{name}", s.withUser(s.handleDeleteProfile))
	s.mux.HandleFunc("GET /api/profiles", s.withUser(s.handleListProfiles))
	s.mux.HandleFunc("POST /api/profiles", s.withUser(s.handleCreateProfile))

	s.mux.HandleFunc("GET /api/uploads", s.withUser(s.handleListUploads))
	s.mux.HandleFunc("POST /api/uploads", s.withUser(s.handleUpload))
}

// ServeHTTP serves a request with CORS handling applied
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}
