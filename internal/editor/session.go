// Package editor holds the live editing sessions behind the HTTP and MCP
// surfaces. A session pairs one loaded PDF with one layout editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/preview"
)

// DefaultScale is the page render scale of the editor canvas
const DefaultScale = 1.5

// ErrInvalidScale is returned for a render scale that is not positive
var ErrInvalidScale = errors.New("scale must be positive")

// Session is one document being edited. All methods are safe for
// concurrent use; the editor itself is only touched under the session lock.
type Session struct {
	ID string

	mu       sync.Mutex
	service  *pdf.Service
	scale    float64
	doc      *pdf.Document
	editor   *layout.Editor
	created  time.Time
	modified time.Time
}

// Snapshot is a consistent view of a session for API responses
type Snapshot struct {
	ID          string           `json:"id"`
	Document    string           `json:"document"`
	PageCount   int              `json:"page_count"`
	PageSize    layout.Size      `json:"page_size"`
	Canvas      layout.Size      `json:"canvas"`
	Scale       float64          `json:"scale"`
	Mode        string           `json:"mode"`
	PlacingType layout.FieldType `json:"placing_type,omitempty"`
	Pending     *layout.Field    `json:"pending,omitempty"`
	Fields      []*layout.Field  `json:"fields"`
	Created     time.Time        `json:"created"`
	Modified    time.Time        `json:"modified"`
}

func newSession(id string, service *pdf.Service, scale float64, doc *pdf.Document) *Session {
	now := time.Now()
	return &Session{
		ID:       id,
		service:  service,
		scale:    scale,
		doc:      doc,
		editor:   layout.NewEditor(layout.NewModel(doc.CanvasSize(scale))),
		created:  now,
		modified: now,
	}
}

// Do runs fn with exclusive access to the editor
func (s *Session) Do(fn func(e *layout.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s.editor)
	s.modified = time.Now()
	return err
}

// Upload replaces the document. Fields placed on the previous document are
// discarded. On a load error the session keeps its current document.
func (s *Session) Upload(name string, data []byte) error {
	doc, err := s.service.Load(name, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc
	s.editor.Reset(doc.CanvasSize(s.scale))
	s.modified = time.Now()
	return nil
}

// DocumentName returns the name of the loaded document
func (s *Session) DocumentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Name
}

// Snapshot captures the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := s.editor.Model()
	snap := Snapshot{
		ID:          s.ID,
		Document:    s.doc.Name,
		PageCount:   s.doc.PageCount(),
		PageSize:    s.doc.PageSize(),
		Canvas:      model.Canvas(),
		Scale:       s.scale,
		Mode:        s.editor.Mode().String(),
		PlacingType: s.editor.PlacingType(),
		Pending:     s.editor.Pending(),
		Fields:      model.Fields(),
		Created:     s.created,
		Modified:    s.modified,
	}
	return snap
}

// SetScale re-renders the page at scale. Persisted fields follow the new
// canvas. It fails while a field is being placed or configured.
func (s *Session) SetScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidScale, scale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode := s.editor.Mode(); mode != layout.ModeIdle {
		return fmt.Errorf("%w: editor is %s", layout.ErrInvalidMode, mode)
	}
	s.scale = scale
	s.editor.Model().SetCanvas(s.doc.CanvasSize(scale))
	s.modified = time.Now()
	return nil
}

// View renders the persisted fields as boxes with handles
func (s *Session) View() []layout.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.View()
}

// Preview writes an SVG picture of the layout
func (s *Session) Preview(w io.Writer) error {
	s.mu.Lock()
	canvas := s.editor.Model().Canvas()
	fields := s.editor.Model().Fields()
	s.mu.Unlock()

	return preview.NewRenderer().SVG(w, canvas, fields)
}

// PDF returns the bytes of the loaded document
func (s *Session) PDF() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Bytes()
}

// Export writes the persisted fields into a copy of the document
func (s *Session) Export(ctx context.Context) ([]byte, *pdf.ExportReport, error) {
	doc, fields, canvas := s.exportInput()
	return s.service.Export(ctx, doc, fields, canvas)
}

// ExportFile exports into the file at path
func (s *Session) ExportFile(ctx context.Context, path string) (*pdf.ExportReport, error) {
	doc, fields, canvas := s.exportInput()
	return s.service.ExportFile(ctx, doc, fields, canvas, path)
}

func (s *Session) exportInput() (*pdf.Document, []*layout.Field, layout.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	model := s.editor.Model()
	return s.doc, model.Fields(), model.Canvas()
}

// Layout captures the persisted fields as a layout document
func (s *Session) Layout() *layoutfile.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layoutfile.FromModel(s.editor.Model())
}

// ApplyLayout adds the fields of doc. With replace set the current fields
// are dropped first, but only once the whole layout is known to apply.
func (s *Session) ApplyLayout(doc *layoutfile.Document, replace bool) ([]*layout.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas := s.editor.Model().Canvas()
	if replace {
		if _, err := layoutfile.Apply(doc, layout.NewModel(canvas)); err != nil {
			return nil, err
		}
		s.editor.Reset(canvas)
	}
	s.modified = time.Now()
	return layoutfile.Apply(doc, s.editor.Model())
}
