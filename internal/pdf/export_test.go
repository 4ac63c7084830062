package pdf

import (
	"context"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/pdf/pdftest"
)

func loadTestDocument(t *testing.T, pages ...pdftest.Page) *Document {
	t.Helper()
	doc, err := NewService(1024*1024, false).Load("test.pdf", pdftest.Document(pages...))
	require.NoError(t, err)
	return doc
}

func fieldsByName(fields []FormField) map[string]FormField {
	out := make(map[string]FormField, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}

func TestExporter_Export(t *testing.T) {
	doc := loadTestDocument(t, pdftest.Page{Width: 300, Height: 400})
	canvas := layout.Size{Width: 600, Height: 800}

	fields := []*layout.Field{
		{ID: 1, Type: layout.FieldTypeText, X: 0, Y: 0, Width: 200, Height: 30, Name: "full_name", Required: true},
		{ID: 2, Type: layout.FieldTypeCheckbox, X: 100, Y: 200, Width: 20, Height: 20, Name: "agree"},
		{ID: 3, Type: layout.FieldTypeDropdown, X: 200, Y: 400, Width: 200, Height: 30, Name: "country", Options: []string{"Canada", "Mexico (MX)"}},
	}

	out, report, err := NewExporter(false).Export(context.Background(), doc, fields, canvas)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	assert.Empty(t, report.Failed)
	require.Len(t, report.Exported, 3)
	assert.Equal(t, layout.Size{Width: 300, Height: 400}, report.PageSize)
	assert.Equal(t, layout.Rect{X: 0, Y: 385, Width: 100, Height: 15}, report.Exported[0].Rect)
	assert.Equal(t, len(out), report.Size)

	inspected, err := InspectFields(out)
	require.NoError(t, err)
	require.Len(t, inspected, 3)
	byName := fieldsByName(inspected)

	name := byName["full_name"]
	assert.Equal(t, FormFieldText, name.Type)
	assert.True(t, name.Required)
	assert.InDelta(t, 0, name.Rect.X, 0.01)
	assert.InDelta(t, 385, name.Rect.Y, 0.01)
	assert.InDelta(t, 100, name.Rect.Width, 0.01)
	assert.InDelta(t, 15, name.Rect.Height, 0.01)

	agree := byName["agree"]
	assert.Equal(t, FormFieldCheckbox, agree.Type)
	assert.False(t, agree.Required)
	assert.InDelta(t, 50, agree.Rect.X, 0.01)
	assert.InDelta(t, 290, agree.Rect.Y, 0.01)

	country := byName["country"]
	assert.Equal(t, FormFieldDropdown, country.Type)
	assert.Equal(t, []string{"Canada", "Mexico (MX)"}, country.Options)
}

func TestExporter_PerFieldFailuresDoNotAbort(t *testing.T) {
	doc := loadTestDocument(t)
	canvas := doc.CanvasSize(1.5)

	fields := []*layout.Field{
		{ID: 1, Type: layout.FieldTypeText, Width: 200, Height: 30, Name: "dup"},
		{ID: 2, Type: layout.FieldTypeText, Y: 100, Width: 200, Height: 30, Name: "dup"},
		{ID: 3, Type: layout.FieldTypeDropdown, Y: 200, Width: 200, Height: 30, Name: "empty"},
		{ID: 4, Type: layout.FieldTypeCheckbox, Y: 300, Width: 20, Height: 20, Name: "ok"},
	}

	out, report, err := NewExporter(false).Export(context.Background(), doc, fields, canvas)
	require.NoError(t, err)

	require.Len(t, report.Failed, 2)
	assert.Equal(t, 2, report.Failed[0].FieldID)
	assert.Contains(t, report.Failed[0].Error, ErrDuplicateName.Error())
	assert.Equal(t, 3, report.Failed[1].FieldID)
	assert.Len(t, report.Exported, 2)

	inspected, err := InspectFields(out)
	require.NoError(t, err)
	assert.Len(t, inspected, 2)
}

func TestAcroForm_RejectedFieldAllocatesNothing(t *testing.T) {
	doc := loadTestDocument(t)
	pctx, err := readContext(doc.Bytes())
	require.NoError(t, err)
	_, pageRef, _, err := pctx.PageDict(1, false)
	require.NoError(t, err)
	require.NotNil(t, pageRef)

	form, err := openAcroForm(pctx)
	require.NoError(t, err)
	r := layout.Rect{X: 10, Y: 10, Width: 100, Height: 15}
	_, err = form.addWidget(&layout.Field{ID: 1, Type: layout.FieldTypeText, Name: "taken"}, r, *pageRef)
	require.NoError(t, err)
	objects := len(pctx.XRefTable.Table)

	for _, field := range []*layout.Field{
		{ID: 2, Type: layout.FieldTypeDropdown, Name: "no_options"},
		{ID: 3, Type: layout.FieldType("signature"), Name: "unknown"},
		{ID: 4, Type: layout.FieldTypeCheckbox, Name: "taken"},
	} {
		_, err := form.addWidget(field, r, *pageRef)
		assert.Error(t, err, field.Name)
		assert.Len(t, pctx.XRefTable.Table, objects, "objects allocated for %s", field.Name)
	}
	assert.Len(t, form.fields, 1)
}

func TestExporter_ExistingFormIsExtended(t *testing.T) {
	doc := loadTestDocument(t)
	canvas := doc.CanvasSize(1)

	first, _, err := NewExporter(false).Export(context.Background(), doc,
		[]*layout.Field{{ID: 1, Type: layout.FieldTypeText, Width: 200, Height: 30, Name: "a"}}, canvas)
	require.NoError(t, err)

	doc2, err := NewService(1024*1024, false).Load("again.pdf", first)
	require.NoError(t, err)

	second, report, err := NewExporter(false).Export(context.Background(), doc2, []*layout.Field{
		{ID: 1, Type: layout.FieldTypeText, Width: 200, Height: 30, Name: "a"},
		{ID: 2, Type: layout.FieldTypeText, Y: 50, Width: 200, Height: 30, Name: "b"},
	}, canvas)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 1, "name already present in the form")

	inspected, err := InspectFields(second)
	require.NoError(t, err)
	assert.Len(t, inspected, 2)
}

func TestExporter_UnicodeNames(t *testing.T) {
	doc := loadTestDocument(t)
	fields := []*layout.Field{{ID: 1, Type: layout.FieldTypeText, Width: 200, Height: 30, Name: "prénom"}}

	out, _, err := NewExporter(false).Export(context.Background(), doc, fields, doc.CanvasSize(1))
	require.NoError(t, err)

	inspected, err := InspectFields(out)
	require.NoError(t, err)
	require.Len(t, inspected, 1)
	assert.Equal(t, "prénom", inspected[0].Name)
}

func TestExporter_Errors(t *testing.T) {
	doc := loadTestDocument(t)
	fields := []*layout.Field{{ID: 1, Type: layout.FieldTypeText, Width: 200, Height: 30, Name: "a"}}
	x := NewExporter(false)

	_, _, err := x.Export(context.Background(), nil, fields, doc.CanvasSize(1))
	assert.ErrorIs(t, err, ErrNoDocument)

	_, _, err = x.Export(context.Background(), doc, nil, doc.CanvasSize(1))
	assert.ErrorIs(t, err, ErrNoFields)

	_, _, err = x.Export(context.Background(), doc, fields, layout.Size{})
	assert.ErrorIs(t, err, ErrNoCanvas)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = x.Export(ctx, doc, fields, doc.CanvasSize(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextString(t *testing.T) {
	lit, ok := textString(`a(b)\`).(types.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, `a\(b\)\\`, string(lit))

	hexLit, ok := textString("é").(types.HexLiteral)
	require.True(t, ok)
	assert.Equal(t, "feff00e9", string(hexLit))
}
