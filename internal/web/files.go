package web

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

const maxListedFiles = 200

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := workspace.FileKind(q.Get("kind"))
	if kind != "" && kind != workspace.KindPDF && kind != workspace.KindLayout {
		writeError(w, badRequest("kind must be pdf or layout", nil))
		return
	}

	limit := maxListedFiles
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, badRequest("limit must be a positive number", err))
			return
		}
		limit = min(n, maxListedFiles)
	}

	files, err := s.opts.Workspace.Find(q.Get("q"), kind, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []workspace.File{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

type openFileRequest struct {
	Path string `json:"path"`
}

// handleOpenFile starts a session on a PDF that already sits in the workspace
func (s *Server) handleOpenFile(w http.ResponseWriter, r *http.Request) {
	var req openFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, badRequest("path is required", nil))
		return
	}
	path, err := s.opts.Workspace.Resolve(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := s.store.Open(path)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("Created session %s for %s", session.ID, path)
	writeJSON(w, http.StatusCreated, session.Snapshot())
}
