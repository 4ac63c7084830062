package layoutfile

import (
	"fmt"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Apply adds the fields of doc to m through the same place, confirm and
// resize steps as the editor, so every validation rule holds. When both doc
// and m know their canvas, positions and sizes are scaled from one to the
// other. The document is replayed on a scratch model first; on error m is
// left untouched.
func Apply(doc *Document, m *layout.Model) ([]*layout.Field, error) {
	if _, err := apply(doc, layout.NewModel(m.Canvas())); err != nil {
		return nil, err
	}
	return apply(doc, m)
}

func apply(doc *Document, m *layout.Model) ([]*layout.Field, error) {
	sx, sy := 1.0, 1.0
	if canvas := m.Canvas(); !doc.Canvas.IsZero() && !canvas.IsZero() {
		sx = canvas.Width / doc.Canvas.Width
		sy = canvas.Height / doc.Canvas.Height
	}

	placed := make([]*layout.Field, 0, len(doc.Fields))
	for i, spec := range doc.Fields {
		x, y := spec.X*sx, spec.Y*sy

		f, err := m.PlaceField(spec.Type, x, y)
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i+1, spec.Type, err)
		}
		if err := m.ConfirmField(f, spec.Name, spec.Required, spec.Options); err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i+1, spec.Name, err)
		}
		if spec.Width > 0 && spec.Height > 0 {
			if _, err := m.ResizeTo(f.ID, spec.Width*sx, spec.Height*sy); err != nil {
				return nil, err
			}
		}
		// the default size may have shifted the placement; reposition with the final size
		f, err = m.MoveTo(f.ID, x, y)
		if err != nil {
			return nil, err
		}
		placed = append(placed, f)
	}
	return placed, nil
}
