package layout

import (
	"fmt"
	"strings"
)

// Model owns the persisted fields of one document together with the canvas
// they were placed on. It is not safe for concurrent use.
type Model struct {
	canvas Size
	fields []*Field
	nextID int
}

// NewModel creates an empty model for a canvas of the given size. A zero
// size is allowed until the first page has been rendered.
func NewModel(canvas Size) *Model {
	return &Model{
		canvas: canvas,
		nextID: 1,
	}
}

// Canvas returns the current canvas size
func (m *Model) Canvas() Size {
	return m.canvas
}

// SetCanvas switches to a new render of the page. Fields are scaled with
// the canvas so they keep their place on the page, then kept inside the new
// bounds and at least MinFieldSize.
func (m *Model) SetCanvas(canvas Size) {
	old := m.canvas
	m.canvas = canvas
	if old.IsZero() || canvas.IsZero() {
		return
	}

	kx, ky := canvas.Width/old.Width, canvas.Height/old.Height
	for _, f := range m.fields {
		f.Width = max(MinFieldSize, f.Width*kx)
		f.Height = max(MinFieldSize, f.Height*ky)
		MoveField(f, f.X*kx, f.Y*ky, canvas)
		fitToCanvas(f, canvas)
	}
}

// Reset drops every field. Ids are not reused afterwards.
func (m *Model) Reset(canvas Size) {
	m.canvas = canvas
	m.fields = nil
}

// PlaceField allocates a provisional field of the given type at (x, y).
// The field is not persisted until ConfirmField succeeds.
func (m *Model) PlaceField(t FieldType, x, y float64) (*Field, error) {
	if !t.Valid() {
		return nil, ErrUnknownFieldType
	}

	size := t.DefaultSize()
	f := &Field{
		ID:     m.nextID,
		Type:   t,
		X:      x,
		Y:      y,
		Width:  size.Width,
		Height: size.Height,
	}
	m.nextID++

	if !m.canvas.IsZero() {
		MoveField(f, x, y, m.canvas)
	}
	return f, nil
}

// ConfirmField validates the dialog input and appends the field to the
// persisted list. On error nothing is modified.
func (m *Model) ConfirmField(f *Field, name string, required bool, options []string) error {
	if m.indexOf(f.ID) >= 0 {
		return ErrAlreadyConfirmed
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Code: EmptyName, FieldID: f.ID}
	}

	var opts []string
	if f.Type == FieldTypeDropdown {
		opts = NormalizeOptions(options)
		if len(opts) == 0 {
			return &ValidationError{Code: EmptyOptions, FieldID: f.ID}
		}
	}

	f.Name = name
	f.Required = required
	f.Options = opts
	m.fields = append(m.fields, f)
	return nil
}

// MoveField positions f at (newX, newY), clamped so the field stays inside bounds
func MoveField(f *Field, newX, newY float64, bounds Size) {
	f.X = clamp(newX, 0, bounds.Width-f.Width)
	f.Y = clamp(newY, 0, bounds.Height-f.Height)
}

// ResizeField grows or shrinks f by the deltas, never below MinFieldSize
func ResizeField(f *Field, deltaW, deltaH float64) {
	f.Width = max(MinFieldSize, f.Width+deltaW)
	f.Height = max(MinFieldSize, f.Height+deltaH)
}

// MoveTo repositions the persisted field id, clamped inside the canvas
func (m *Model) MoveTo(id int, x, y float64) (*Field, error) {
	f, ok := m.Field(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFieldNotFound, id)
	}
	if m.canvas.IsZero() {
		f.X, f.Y = x, y
	} else {
		MoveField(f, x, y, m.canvas)
	}
	return f.Clone(), nil
}

// ResizeTo sets the size of the persisted field id. The size never drops
// below MinFieldSize and is capped so the field stays on the canvas.
func (m *Model) ResizeTo(id int, width, height float64) (*Field, error) {
	f, ok := m.Field(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFieldNotFound, id)
	}
	ResizeField(f, width-f.Width, height-f.Height)
	fitToCanvas(f, m.canvas)
	return f.Clone(), nil
}

// fitToCanvas caps the size of f so it ends inside canvas
func fitToCanvas(f *Field, canvas Size) {
	if canvas.IsZero() {
		return
	}
	f.Width = max(MinFieldSize, min(f.Width, canvas.Width-f.X))
	f.Height = max(MinFieldSize, min(f.Height, canvas.Height-f.Y))
}

// DeleteField removes the field with the given id. It reports whether a
// field was removed; deleting an unknown id is a no-op.
func (m *Model) DeleteField(id int) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.fields = append(m.fields[:i], m.fields[i+1:]...)
	return true
}

// Field returns the persisted field with the given id
func (m *Model) Field(id int) (*Field, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.fields[i], true
	}
	return nil, false
}

// Fields returns a snapshot of the persisted fields in placement order
func (m *Model) Fields() []*Field {
	out := make([]*Field, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.Clone()
	}
	return out
}

// Len returns the number of persisted fields
func (m *Model) Len() int {
	return len(m.fields)
}

func (m *Model) indexOf(id int) int {
	for i, f := range m.fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}
