// Package preview draws a static picture of a form layout. The output mirrors
// the editor overlay: the page outline, one box per field and its handles.
package preview

import (
	"fmt"
	"image/color"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

var (
	pageFill    = color.RGBA{255, 255, 255, 255}
	pageStroke  = color.RGBA{200, 200, 200, 255}
	handleFill  = color.RGBA{102, 128, 230, 255}
	deleteFill  = color.RGBA{220, 53, 69, 255}
	glyphStroke = color.RGBA{60, 60, 60, 255}
	transparent = color.RGBA{0, 0, 0, 0}
)

var typeStroke = map[layout.FieldType]color.RGBA{
	layout.FieldTypeText:     {102, 128, 230, 255},
	layout.FieldTypeCheckbox: {40, 167, 69, 255},
	layout.FieldTypeDropdown: {253, 126, 20, 255},
}

var typeFill = map[layout.FieldType]color.RGBA{
	layout.FieldTypeText:     {102, 128, 230, 40},
	layout.FieldTypeCheckbox: {40, 167, 69, 40},
	layout.FieldTypeDropdown: {253, 126, 20, 40},
}

// Renderer draws layouts with github.com/tdewolff/canvas
type Renderer struct {
	strokeWidth float64
}

// NewRenderer creates a renderer with a 1px field border
func NewRenderer() *Renderer {
	return &Renderer{strokeWidth: 1}
}

// SVG writes the layout as an SVG document sized to the canvas
func (r *Renderer) SVG(w io.Writer, size layout.Size, fields []*layout.Field) error {
	if size.IsZero() {
		return fmt.Errorf("invalid canvas size %.0fx%.0f", size.Width, size.Height)
	}

	c := canvas.New(size.Width, size.Height)
	ctx := canvas.NewContext(c)
	// top-left origin like the editor canvas
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetFillColor(pageFill)
	ctx.SetStrokeColor(pageStroke)
	ctx.SetStrokeWidth(r.strokeWidth)
	ctx.DrawPath(0, 0, canvas.Rectangle(size.Width, size.Height))

	for _, box := range layout.Render(fields) {
		r.drawBox(ctx, box)
	}

	out := svg.New(w, size.Width, size.Height, nil)
	c.RenderTo(out)
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

func (r *Renderer) drawBox(ctx *canvas.Context, box layout.Box) {
	stroke, ok := typeStroke[box.Type]
	if !ok {
		stroke = glyphStroke
	}
	ctx.SetFillColor(typeFill[box.Type])
	ctx.SetStrokeColor(stroke)
	ctx.SetStrokeWidth(r.strokeWidth)
	if box.Required {
		ctx.SetDashes(0)
	} else {
		ctx.SetDashes(0, 4, 2)
	}
	ctx.DrawPath(box.Body.X, box.Body.Y, canvas.Rectangle(box.Body.Width, box.Body.Height))
	ctx.SetDashes(0)

	r.drawGlyph(ctx, box)

	ctx.SetStrokeColor(transparent)
	ctx.SetFillColor(handleFill)
	h := box.ResizeHandle
	ctx.DrawPath(h.X, h.Y, canvas.Rectangle(h.Width, h.Height))

	d := box.DeleteHandle
	ctx.SetFillColor(deleteFill)
	ctx.DrawPath(d.X, d.Y, canvas.Rectangle(d.Width, d.Height))

	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(pageFill)
	ctx.SetStrokeWidth(1.5)
	inset := d.Width / 4
	cross := &canvas.Path{}
	cross.MoveTo(inset, inset)
	cross.LineTo(d.Width-inset, d.Height-inset)
	cross.MoveTo(d.Width-inset, inset)
	cross.LineTo(inset, d.Height-inset)
	ctx.DrawPath(d.X, d.Y, cross)
}

// drawGlyph marks the field type inside the body
func (r *Renderer) drawGlyph(ctx *canvas.Context, box layout.Box) {
	b := box.Body
	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(glyphStroke)
	ctx.SetStrokeWidth(r.strokeWidth)

	switch box.Type {
	case layout.FieldTypeCheckbox:
		tick := &canvas.Path{}
		tick.MoveTo(b.Width*0.2, b.Height*0.55)
		tick.LineTo(b.Width*0.4, b.Height*0.75)
		tick.LineTo(b.Width*0.8, b.Height*0.25)
		ctx.DrawPath(b.X, b.Y, tick)
	case layout.FieldTypeDropdown:
		// chevron left of the handles
		size := b.Height / 4
		x := b.Width - layout.DeleteHandleSize - 2*size - 4
		if x < 0 {
			return
		}
		chevron := &canvas.Path{}
		chevron.MoveTo(x, b.Height/2-size/2)
		chevron.LineTo(x+size, b.Height/2+size/2)
		chevron.LineTo(x+2*size, b.Height/2-size/2)
		ctx.DrawPath(b.X, b.Y, chevron)
	case layout.FieldTypeText:
		// baseline
		line := &canvas.Path{}
		line.MoveTo(4, b.Height-4)
		line.LineTo(b.Width-layout.ResizeHandleSize-4, b.Height-4)
		if b.Width-layout.ResizeHandleSize-8 > 0 {
			ctx.DrawPath(b.X, b.Y, line)
		}
	}
}
