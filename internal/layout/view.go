package layout

// Handle sizes in canvas pixels
const (
	ResizeHandleSize = 10
	DeleteHandleSize = 16
)

// Part identifies which area of a rendered field a point falls into
type Part string

const (
	PartBody   Part = "body"
	PartResize Part = "resize"
	PartDelete Part = "delete"
)

// Box is the rendered form of one field: its body plus interactive handles
type Box struct {
	FieldID      int       `json:"field_id"`
	Type         FieldType `json:"type"`
	Label        string    `json:"label"`
	Required     bool      `json:"required"`
	Body         Rect      `json:"body"`
	DeleteHandle Rect      `json:"delete_handle"`
	ResizeHandle Rect      `json:"resize_handle"`
}

// Render derives the overlay from the field list. It is a pure function of
// its input; the same boxes drive drawing and hit testing.
func Render(fields []*Field) []Box {
	boxes := make([]Box, 0, len(fields))
	for _, f := range fields {
		body := f.Rect()
		boxes = append(boxes, Box{
			FieldID:  f.ID,
			Type:     f.Type,
			Label:    f.Label(),
			Required: f.Required,
			Body:     body,
			DeleteHandle: Rect{
				X:      body.X + body.Width - DeleteHandleSize,
				Y:      body.Y,
				Width:  DeleteHandleSize,
				Height: DeleteHandleSize,
			},
			ResizeHandle: Rect{
				X:      body.X + body.Width - ResizeHandleSize,
				Y:      body.Y + body.Height - ResizeHandleSize,
				Width:  ResizeHandleSize,
				Height: ResizeHandleSize,
			},
		})
	}
	return boxes
}

// HitTest finds the top-most box under p. Later fields are drawn on top, and
// within a box the resize handle sits above the delete handle.
func HitTest(boxes []Box, p Point) (Box, Part, bool) {
	for i := len(boxes) - 1; i >= 0; i-- {
		b := boxes[i]
		switch {
		case b.ResizeHandle.Contains(p):
			return b, PartResize, true
		case b.DeleteHandle.Contains(p):
			return b, PartDelete, true
		case b.Body.Contains(p):
			return b, PartBody, true
		}
	}
	return Box{}, "", false
}
