package layout

import "fmt"

// Mode is the editor's interaction state
type Mode int

const (
	// ModeIdle accepts gestures on existing fields
	ModeIdle Mode = iota
	// ModePlacing waits for the click that positions a new field
	ModePlacing
	// ModeConfiguring holds a provisional field until it is confirmed or cancelled
	ModeConfiguring
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePlacing:
		return "placing"
	case ModeConfiguring:
		return "configuring"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Editor drives a Model through pointer interactions
type Editor struct {
	model   *Model
	mode    Mode
	placing FieldType
	pending *Field
	gesture *Gesture
}

// NewEditor creates an idle editor over model
func NewEditor(model *Model) *Editor {
	return &Editor{model: model}
}

// Model returns the underlying field model
func (e *Editor) Model() *Model {
	return e.model
}

// Mode returns the current interaction state
func (e *Editor) Mode() Mode {
	return e.mode
}

// PlacingType returns the type selected for placement, if any
func (e *Editor) PlacingType() FieldType {
	return e.placing
}

// Pending returns a copy of the provisional field while configuring
func (e *Editor) Pending() *Field {
	if e.pending == nil {
		return nil
	}
	return e.pending.Clone()
}

// BeginPlacing selects a field type; the next Click places it. Selecting
// another type while placing replaces the selection.
func (e *Editor) BeginPlacing(t FieldType) error {
	if !t.Valid() {
		return ErrUnknownFieldType
	}
	if e.mode == ModeConfiguring {
		return fmt.Errorf("%w: a field is being configured", ErrInvalidMode)
	}
	if e.gesture != nil {
		return ErrGestureActive
	}
	e.mode = ModePlacing
	e.placing = t
	return nil
}

// Click places the selected field type at p and opens configuration
func (e *Editor) Click(p Point) (*Field, error) {
	if e.mode != ModePlacing {
		return nil, fmt.Errorf("%w: no field type selected", ErrInvalidMode)
	}
	f, err := e.model.PlaceField(e.placing, p.X, p.Y)
	if err != nil {
		return nil, err
	}
	e.pending = f
	e.placing = ""
	e.mode = ModeConfiguring
	return f.Clone(), nil
}

// Confirm persists the provisional field. On a ValidationError the editor
// stays in ModeConfiguring so the input can be corrected.
func (e *Editor) Confirm(name string, required bool, options []string) (*Field, error) {
	if e.mode != ModeConfiguring || e.pending == nil {
		return nil, fmt.Errorf("%w: no field is being configured", ErrInvalidMode)
	}
	if err := e.model.ConfirmField(e.pending, name, required, options); err != nil {
		return nil, err
	}
	f := e.pending
	e.pending = nil
	e.mode = ModeIdle
	return f.Clone(), nil
}

// Cancel abandons placement or configuration and returns to idle
func (e *Editor) Cancel() {
	e.pending = nil
	e.placing = ""
	e.mode = ModeIdle
}

// Reset clears all fields for a newly loaded document and returns to idle
func (e *Editor) Reset(canvas Size) {
	if e.gesture != nil {
		e.gesture.Release()
	}
	e.Cancel()
	e.model.Reset(canvas)
}

// Delete removes a persisted field
func (e *Editor) Delete(id int) bool {
	if e.gesture != nil && e.gesture.field.ID == id {
		e.gesture.Release()
	}
	return e.model.DeleteField(id)
}

// View renders the persisted fields
func (e *Editor) View() []Box {
	return Render(e.model.fields)
}

// GestureKind distinguishes what a pointer-down started
type GestureKind string

const (
	GestureDrag   GestureKind = "drag"
	GestureResize GestureKind = "resize"
	GestureDelete GestureKind = "delete"
)

// Gesture is a scoped pointer interaction on one field, live from
// PointerDown until Release
type Gesture struct {
	editor   *Editor
	kind     GestureKind
	field    *Field
	grab     Point
	last     Point
	released bool
}

// PointerDown starts a gesture on the field under p. A press on the delete
// handle removes the field immediately and returns an already released
// gesture of kind GestureDelete.
func (e *Editor) PointerDown(p Point) (*Gesture, error) {
	if e.mode != ModeIdle {
		return nil, fmt.Errorf("%w: editor is %s", ErrInvalidMode, e.mode)
	}
	if e.gesture != nil {
		return nil, ErrGestureActive
	}

	box, part, ok := HitTest(e.View(), p)
	if !ok {
		return nil, ErrNoFieldAtPoint
	}
	f, _ := e.model.Field(box.FieldID)

	g := &Gesture{editor: e, field: f, last: p}
	switch part {
	case PartDelete:
		e.model.DeleteField(f.ID)
		g.kind = GestureDelete
		g.released = true
		return g, nil
	case PartResize:
		g.kind = GestureResize
	default:
		g.kind = GestureDrag
		g.grab = Point{X: p.X - f.X, Y: p.Y - f.Y}
	}
	e.gesture = g
	return g, nil
}

// RunGesture presses at down, follows path and releases on every exit path.
// A delete ends at the press; the rest of path is ignored.
func (e *Editor) RunGesture(down Point, path []Point) (*Gesture, error) {
	g, err := e.PointerDown(down)
	if err != nil {
		return nil, err
	}
	if g.Released() {
		return g, nil
	}
	defer g.Release()

	for _, p := range path {
		if err := g.Move(p); err != nil {
			return g, err
		}
	}
	return g, nil
}

// Kind returns what the gesture does
func (g *Gesture) Kind() GestureKind {
	return g.kind
}

// FieldID returns the id of the field under the gesture
func (g *Gesture) FieldID() int {
	return g.field.ID
}

// Released reports whether the gesture has ended
func (g *Gesture) Released() bool {
	return g.released
}

// Move applies a pointer move in canvas space
func (g *Gesture) Move(p Point) error {
	if g.released {
		return ErrGestureReleased
	}

	canvas := g.editor.model.Canvas()
	switch g.kind {
	case GestureDrag:
		MoveField(g.field, p.X-g.grab.X, p.Y-g.grab.Y, canvas)
	case GestureResize:
		ResizeField(g.field, p.X-g.last.X, p.Y-g.last.Y)
		fitToCanvas(g.field, canvas)
	}
	g.last = p
	return nil
}

// Release ends the gesture. It is safe to call more than once.
func (g *Gesture) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.editor.gesture == g {
		g.editor.gesture = nil
	}
}
