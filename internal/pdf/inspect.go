package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// InspectFields lists the AcroForm fields of a PDF
func InspectFields(data []byte) ([]FormField, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	var fields []FormField

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fields, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return fields, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fields, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for _, ref := range fieldsArray {
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		fields = append(fields, inspectField(ctx, d))
	}
	return fields, nil
}

func inspectField(ctx *model.Context, d types.Dict) FormField {
	var field FormField

	if obj, found := d.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
			field.Name = name
		}
	}

	flags := 0
	if obj, found := d.Find("Ff"); found {
		if i, err := ctx.DereferenceInteger(obj); err == nil && i != nil {
			flags = int(*i)
		}
	}
	field.Required = flags&flagRequired != 0

	ft := ""
	if obj, found := d.Find("FT"); found {
		if n, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
			ft = string(n)
		}
	}
	field.Type = fieldTypeName(ft, flags)

	if obj, found := d.Find("Opt"); found {
		if arr, err := ctx.DereferenceArray(obj); err == nil {
			field.Options = optionLabels(ctx, arr)
		}
	}

	widget := d
	if _, found := d.Find("Rect"); !found {
		if obj, found := d.Find("Kids"); found {
			if kids, err := ctx.DereferenceArray(obj); err == nil && len(kids) > 0 {
				if kid, err := ctx.DereferenceDict(kids[0]); err == nil && kid != nil {
					widget = kid
				}
			}
		}
	}
	if obj, found := widget.Find("Rect"); found {
		if arr, err := ctx.DereferenceArray(obj); err == nil && len(arr) == 4 {
			llx, lly := number4(ctx, arr[0]), number4(ctx, arr[1])
			urx, ury := number4(ctx, arr[2]), number4(ctx, arr[3])
			field.Rect = layout.Rect{X: llx, Y: lly, Width: urx - llx, Height: ury - lly}
		}
	}

	return field
}

func fieldTypeName(ft string, flags int) string {
	switch ft {
	case "Tx":
		return FormFieldText
	case "Btn":
		switch {
		case flags&flagPush != 0:
			return FormFieldButton
		case flags&flagRadio != 0:
			return FormFieldRadio
		}
		return FormFieldCheckbox
	case "Ch":
		if flags&flagCombo != 0 {
			return FormFieldDropdown
		}
		return FormFieldList
	case "Sig":
		return FormFieldSignature
	}
	return FormFieldUnknown
}

// optionLabels reads an Opt array; pair entries [export display] yield the display text
func optionLabels(ctx *model.Context, arr types.Array) []string {
	var out []string
	for _, o := range arr {
		if pair, err := ctx.DereferenceArray(o); err == nil && len(pair) == 2 {
			o = pair[1]
		}
		if s, err := ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func number4(ctx *model.Context, o types.Object) float64 {
	f, err := ctx.DereferenceNumber(o)
	if err != nil {
		return 0
	}
	return f
}
