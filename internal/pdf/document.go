package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Document is a loaded PDF. Fields are only ever placed on its first page.
type Document struct {
	Name      string
	data      []byte
	pageCount int
	mediaBox  *types.Rectangle
}

// Bytes returns the original document bytes
func (d *Document) Bytes() []byte {
	return d.data
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return d.pageCount
}

// PageSize returns the first page's media box size in points
func (d *Document) PageSize() layout.Size {
	return layout.Size{Width: d.mediaBox.Width(), Height: d.mediaBox.Height()}
}

// pageOrigin is the lower-left corner of the first page's media box
func (d *Document) pageOrigin() layout.Point {
	return layout.Point{X: d.mediaBox.LL.X, Y: d.mediaBox.LL.Y}
}

// CanvasSize returns the pixel size a renderer produces for the first page at scale
func (d *Document) CanvasSize(scale float64) layout.Size {
	return d.PageSize().Scale(scale)
}

// newConfiguration returns the pdfcpu configuration shared by reads and writes
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// readContext parses data into a pdfcpu context with its page tree resolved
func readContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// firstPageBox returns the first page's media box
func firstPageBox(ctx *model.Context) (*types.Rectangle, error) {
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("document has no pages")
	}
	_, _, inherited, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read first page: %w", err)
	}
	if inherited == nil || inherited.MediaBox == nil {
		return nil, fmt.Errorf("first page has no media box")
	}
	return inherited.MediaBox, nil
}

// parseDocument builds a Document from already validated bytes
func parseDocument(name string, data []byte) (*Document, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, &LoadError{Reason: "unreadable PDF structure", Err: err}
	}

	box, err := firstPageBox(ctx)
	if err != nil {
		return nil, &LoadError{Reason: "unusable first page", Err: err}
	}
	if box.Width() <= 0 || box.Height() <= 0 {
		return nil, &LoadError{Reason: "first page has an empty media box"}
	}

	return &Document{
		Name:      name,
		data:      data,
		pageCount: ctx.PageCount,
		mediaBox:  box,
	}, nil
}
