package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Exporter writes layout fields into a PDF as AcroForm widgets
type Exporter struct {
	debugMode bool
}

// NewExporter creates an exporter
func NewExporter(debugMode bool) *Exporter {
	return &Exporter{debugMode: debugMode}
}

// Export adds every field to the first page of doc. canvas is the size of
// the rendering the fields were placed on. A field that cannot be written is
// logged, reported and skipped; the rest are still exported.
func (x *Exporter) Export(ctx context.Context, doc *Document, fields []*layout.Field, canvas layout.Size) ([]byte, *ExportReport, error) {
	if doc == nil {
		return nil, nil, ErrNoDocument
	}
	if len(fields) == 0 {
		return nil, nil, ErrNoFields
	}
	if canvas.IsZero() {
		return nil, nil, ErrNoCanvas
	}

	pctx, err := readContext(doc.data)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating PDF: %w", err)
	}

	pageDict, pageRef, _, err := pctx.PageDict(1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating PDF: failed to read first page: %w", err)
	}
	if pageRef == nil {
		return nil, nil, fmt.Errorf("error generating PDF: first page is not an indirect object")
	}

	form, err := openAcroForm(pctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating PDF: %w", err)
	}

	annots := types.Array{}
	if obj, found := pageDict.Find("Annots"); found {
		arr, err := pctx.DereferenceArray(obj)
		if err != nil {
			return nil, nil, fmt.Errorf("error generating PDF: failed to read page annotations: %w", err)
		}
		annots = append(annots, arr...)
	}

	report := &ExportReport{PageSize: doc.PageSize()}
	origin := doc.pageOrigin()

	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		r := layout.ExportCoordinates(f, canvas, report.PageSize)
		r.X += origin.X
		r.Y += origin.Y

		ref, err := form.addWidget(f, r, *pageRef)
		if err != nil {
			log.Printf("Error adding field %s: %v", f.Name, err)
			report.Failed = append(report.Failed, FieldFailure{FieldID: f.ID, Name: f.Name, Error: err.Error()})
			continue
		}
		annots = append(annots, ref)
		report.Exported = append(report.Exported, ExportedField{FieldID: f.ID, Name: f.Name, Type: f.Type, Rect: r})

		if x.debugMode {
			log.Printf("Exported %s field %q at [%.2f %.2f %.2f %.2f]", f.Type, f.Name, r.X, r.Y, r.Width, r.Height)
		}
	}

	form.close()
	pageDict["Annots"] = annots

	var buf bytes.Buffer
	if err := api.WriteContext(pctx, &buf); err != nil {
		return nil, nil, fmt.Errorf("error generating PDF: %w", err)
	}

	report.Size = buf.Len()
	return buf.Bytes(), report, nil
}
