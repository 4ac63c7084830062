package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
)

// multipart bodies carry some overhead on top of the PDF itself
const uploadOverhead = 1 << 20

type fieldTypeInfo struct {
	Type  string
	Icon  string
	Title string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	types := []fieldTypeInfo{}
	for _, t := range []layout.FieldType{layout.FieldTypeText, layout.FieldTypeCheckbox, layout.FieldTypeDropdown} {
		types = append(types, fieldTypeInfo{Type: string(t), Icon: t.Icon(), Title: t.Title()})
	}

	var buf bytes.Buffer
	err := s.page.ExecuteWriter(pongo2.Context{
		"title":         "PDF Form Designer",
		"scale":         s.store.Scale(),
		"output_name":   s.opts.OutputName,
		"max_file_size": s.opts.MaxUploadSize,
		"field_types":   types,
		"workspace":     s.opts.Workspace != nil,
	}, &buf)
	if err != nil {
		writeError(w, fmt.Errorf("failed to render editor page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := s.store.Create(name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("Created session %s for %s", session.ID, name)
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(r.PathValue("id")) {
		writeError(w, editor.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(session.PDF())
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := session.Upload(name, data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// readUpload accepts a multipart form with a "file" part or a raw PDF body
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.opts.MaxUploadSize + uploadOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, uploadError(err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, uploadError(err)
		}
		return filepath.Base(header.Filename), data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadError(err)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "document.pdf"
	}
	return filepath.Base(name), data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &pdf.LoadError{Reason: "file too large", Err: err}
	}
	return badRequest("cannot read upload", err)
}

type placingRequest struct {
	Type string `json:"type"`
}

func (s *Server) handlePlacing(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req placingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := layout.ParseFieldType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := session.Do(func(e *layout.Editor) error { return e.BeginPlacing(t) }); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// pointRequest carries either a canvas point or a client point plus the
// canvas origin in client space
type pointRequest struct {
	X      *float64      `json:"x,omitempty"`
	Y      *float64      `json:"y,omitempty"`
	Client *layout.Point `json:"client,omitempty"`
	Origin *layout.Point `json:"origin,omitempty"`
}

func (p pointRequest) canvasPoint() (layout.Point, error) {
	switch {
	case p.X != nil && p.Y != nil:
		return layout.Point{X: *p.X, Y: *p.Y}, nil
	case p.Client != nil && p.Origin != nil:
		return layout.PointerToCanvas(*p.Client, *p.Origin), nil
	}
	return layout.Point{}, badRequest("either x and y or client and origin are required", nil)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.canvasPoint()
	if err != nil {
		writeError(w, err)
		return
	}

	var placed *layout.Field
	err = session.Do(func(e *layout.Editor) error {
		var err error
		placed, err = e.Click(p)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placed)
}

type confirmRequest struct {
	Name        string   `json:"name"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	OptionsText string   `json:"options_text,omitempty"` // raw dialog input, one option per line
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	options := req.Options
	if req.OptionsText != "" {
		options = append(options, layout.SplitOptions(req.OptionsText)...)
	}

	var confirmed *layout.Field
	err := session.Do(func(e *layout.Editor) error {
		var err error
		confirmed, err = e.Confirm(req.Name, req.Required, options)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmed)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	_ = session.Do(func(e *layout.Editor) error {
		e.Cancel()
		return nil
	})
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type scaleRequest struct {
	Scale float64 `json:"scale"`
}

func (s *Server) handleSetScale(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req scaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := session.SetScale(req.Scale); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type gestureRequest struct {
	Down layout.Point   `json:"down"`
	Path []layout.Point `json:"path"`
}

type gestureResponse struct {
	Kind    layout.GestureKind `json:"kind"`
	FieldID int                `json:"field_id"`
	Field   *layout.Field      `json:"field,omitempty"`
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req gestureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var resp gestureResponse
	err := session.Do(func(e *layout.Editor) error {
		g, err := e.RunGesture(req.Down, req.Path)
		if g != nil {
			resp.Kind = g.Kind()
			resp.FieldID = g.FieldID()
			if f, ok := e.Model().Field(g.FieldID()); ok {
				resp.Field = f.Clone()
			}
		}
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateFieldRequest struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	id, err := fieldID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var updated *layout.Field
	err = session.Do(func(e *layout.Editor) error {
		m := e.Model()
		f, ok := m.Field(id)
		if !ok {
			return fmt.Errorf("%w: %d", layout.ErrFieldNotFound, id)
		}
		width, height := f.Width, f.Height
		if req.Width != nil {
			width = *req.Width
		}
		if req.Height != nil {
			height = *req.Height
		}
		x, y := f.X, f.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		if _, err := m.MoveTo(id, x, y); err != nil {
			return err
		}
		updated, err = m.ResizeTo(id, width, height)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	id, err := fieldID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var removed bool
	_ = session.Do(func(e *layout.Editor) error {
		removed = e.Delete(id)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{"field_id": id, "removed": removed})
}

func fieldID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("fid"))
	if err != nil {
		return 0, badRequest("invalid field id", err)
	}
	return id, nil
}

// viewBox carries the plain label for text nodes and an HTML form of it for
// the overlay markup
type viewBox struct {
	layout.Box
	LabelHTML string `json:"label_html"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	boxes := session.View()
	out := make([]viewBox, len(boxes))
	for i, b := range boxes {
		out[i] = viewBox{Box: b, LabelHTML: s.sanitizer.Sanitize(b.Label)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"canvas": session.Snapshot().Canvas,
		"boxes":  out,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var buf bytes.Buffer
	if err := session.Preview(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = buf.WriteTo(w)
}

func layoutFormat(r *http.Request) (layoutfile.Format, error) {
	name := r.URL.Query().Get("format")
	if name == "" {
		return layoutfile.FormatJSON, nil
	}
	return layoutfile.ParseFormat(name)
}

var layoutContentTypes = map[layoutfile.Format]string{
	layoutfile.FormatJSON:   "application/json",
	layoutfile.FormatYAML:   "application/yaml",
	layoutfile.FormatFields: "text/plain; charset=utf-8",
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	format, err := layoutFormat(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := layoutfile.Encode(session.Layout(), format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", layoutContentTypes[format])
	_, _ = w.Write(data)
}

func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	format, err := layoutFormat(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, uploadOverhead))
	if err != nil {
		writeError(w, badRequest("cannot read layout", err))
		return
	}
	doc, err := layoutfile.Parse(body, format)
	if err != nil {
		writeError(w, badRequest("invalid layout", err))
		return
	}

	replace := !strings.EqualFold(r.URL.Query().Get("replace"), "false")
	placed, err := session.ApplyLayout(doc, replace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"placed": placed, "session": session.Snapshot()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	out, report, err := session.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, f := range report.Failed {
		log.Printf("Session %s: field %q skipped: %s", session.ID, f.Name, f.Error)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.opts.OutputName))
	w.Header().Set("X-Fields-Exported", strconv.Itoa(len(report.Exported)))
	w.Header().Set("X-Fields-Failed", strconv.Itoa(len(report.Failed)))
	_, _ = w.Write(out)
}
