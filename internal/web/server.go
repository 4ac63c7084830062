// Package web serves the browser editor and its JSON API
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the HTTP editor
type Options struct {
	OutputName    string // file name offered for exported documents
	MaxUploadSize int64  // cap on request bodies carrying a PDF
	Debug         bool

	// Workspace enables listing and opening files from the workspace
	// directory. The file routes are not registered when it is nil.
	Workspace *workspace.Workspace
}

// Server routes editor requests to sessions in a Store
type Server struct {
	store     *editor.Store
	opts      Options
	page      *pongo2.Template
	sanitizer *bluemonday.Policy
	mux       *http.ServeMux
}

// NewServer builds the handler tree for store
func NewServer(store *editor.Store, opts Options) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if opts.OutputName == "" {
		opts.OutputName = pdf.DefaultOutputName
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = store.Service().MaxFileSize()
	}

	templates, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	set := pongo2.NewSet("editor", pongo2.NewFSLoader(templates))
	page, err := set.FromFile("editor.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load editor template: %w", err)
	}

	s := &Server{
		store:     store,
		opts:      opts,
		page:      page,
		sanitizer: bluemonday.StrictPolicy(),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	if s.opts.Workspace != nil {
		s.mux.HandleFunc("GET /api/files", s.handleListFiles)
		s.mux.HandleFunc("POST /api/files/open", s.handleOpenFile)
	}

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleGetSession))
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /api/sessions/{id}/document", s.withSession(s.handleGetDocument))
	s.mux.HandleFunc("POST /api/sessions/{id}/document", s.withSession(s.handleUploadDocument))

	s.mux.HandleFunc("PUT /api/sessions/{id}/scale", s.withSession(s.handleSetScale))

	s.mux.HandleFunc("POST /api/sessions/{id}/placing", s.withSession(s.handlePlacing))
	s.mux.HandleFunc("POST /api/sessions/{id}/place", s.withSession(s.handlePlace))
	s.mux.HandleFunc("POST /api/sessions/{id}/confirm", s.withSession(s.handleConfirm))
	s.mux.HandleFunc("POST /api/sessions/{id}/cancel", s.withSession(s.handleCancel))
	s.mux.HandleFunc("POST /api/sessions/{id}/gesture", s.withSession(s.handleGesture))
	s.mux.HandleFunc("PATCH /api/sessions/{id}/fields/{fid}", s.withSession(s.handleUpdateField))
	s.mux.HandleFunc("DELETE /api/sessions/{id}/fields/{fid}", s.withSession(s.handleDeleteField))

	s.mux.HandleFunc("GET /api/sessions/{id}/view", s.withSession(s.handleView))
	s.mux.HandleFunc("GET /api/sessions/{id}/preview.svg", s.withSession(s.handlePreview))
	s.mux.HandleFunc("GET /api/sessions/{id}/layout", s.withSession(s.handleGetLayout))
	s.mux.HandleFunc("PUT /api/sessions/{id}/layout", s.withSession(s.handlePutLayout))
	s.mux.HandleFunc("GET /api/sessions/{id}/export", s.withSession(s.handleExport))
}

// Mount attaches another handler under pattern, e.g. the MCP SSE endpoint
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	if s.opts.Debug {
		return logRequests(s.mux)
	}
	return s.mux
}

// sessionHandler is a handler for a route carrying a session id
type sessionHandler func(w http.ResponseWriter, r *http.Request, session *editor.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r, session)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses such as SSE working behind the logger
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
