package pdf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Field flags, PDF 32000-1 table 221 and 230
const (
	flagRequired = 1 << 1
	flagRadio    = 1 << 15
	flagPush     = 1 << 16
	flagCombo    = 1 << 17

	// annotation flag: print
	annotPrint = 4

	defaultAppearance = "/Helv 0 Tf 0 g"
	checkGlyph        = "4"
)

// borderColor is the widget border, rgb(0.4, 0.5, 0.9)
var borderColor = [3]float64{0.4, 0.5, 0.9}

// acroForm appends widgets to a document's interactive form
type acroForm struct {
	ctx    *model.Context
	dict   types.Dict
	fields types.Array
	names  map[string]bool
	helv   types.IndirectRef
	zadb   types.IndirectRef
}

// openAcroForm finds or creates the catalog's AcroForm dictionary and
// indexes the names of the fields it already holds
func openAcroForm(ctx *model.Context) (*acroForm, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	form := &acroForm{ctx: ctx, names: map[string]bool{}}

	if obj, found := root.Find("AcroForm"); found {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
		}
		form.dict = d
	}
	if form.dict == nil {
		form.dict = types.Dict{}
		ref, err := ctx.IndRefForNewObject(form.dict)
		if err != nil {
			return nil, fmt.Errorf("failed to add AcroForm: %w", err)
		}
		root["AcroForm"] = *ref
	}

	if obj, found := form.dict.Find("Fields"); found {
		arr, err := ctx.DereferenceArray(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
		}
		form.fields = append(form.fields, arr...)
	}
	for _, obj := range form.fields {
		d, err := ctx.DereferenceDict(obj)
		if err != nil || d == nil {
			continue
		}
		if t, found := d.Find("T"); found {
			if name, err := ctx.DereferenceStringOrHexLiteral(t, model.V10, nil); err == nil {
				form.names[name] = true
			}
		}
	}

	if err := form.ensureResources(); err != nil {
		return nil, err
	}
	return form, nil
}

// ensureResources registers Helvetica and ZapfDingbats in the form's default resources
func (f *acroForm) ensureResources() error {
	var err error
	if f.helv, err = f.newFont("Helvetica"); err != nil {
		return err
	}
	if f.zadb, err = f.newFont("ZapfDingbats"); err != nil {
		return err
	}

	dr := types.Dict{}
	if obj, found := f.dict.Find("DR"); found {
		if d, err := f.ctx.DereferenceDict(obj); err == nil && d != nil {
			dr = d
		}
	}
	fonts := types.Dict{}
	if obj, found := dr.Find("Font"); found {
		if d, err := f.ctx.DereferenceDict(obj); err == nil && d != nil {
			fonts = d
		}
	}
	if _, found := fonts.Find("Helv"); !found {
		fonts["Helv"] = f.helv
	}
	if _, found := fonts.Find("ZaDb"); !found {
		fonts["ZaDb"] = f.zadb
	}
	dr["Font"] = fonts
	f.dict["DR"] = dr

	if _, found := f.dict.Find("DA"); !found {
		f.dict["DA"] = types.StringLiteral(defaultAppearance)
	}
	f.dict["NeedAppearances"] = types.Boolean(true)
	return nil
}

func (f *acroForm) newFont(base string) (types.IndirectRef, error) {
	ref, err := f.ctx.IndRefForNewObject(types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(base),
	})
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to add font %s: %w", base, err)
	}
	return *ref, nil
}

// addWidget writes one merged field/widget dictionary and returns its reference
func (f *acroForm) addWidget(field *layout.Field, r layout.Rect, page types.IndirectRef) (types.IndirectRef, error) {
	if err := f.check(field); err != nil {
		return types.IndirectRef{}, err
	}

	d := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Widget"),
		"T":       textString(field.Name),
		"Rect":    types.NewNumberArray(r.X, r.Y, r.X+r.Width, r.Y+r.Height),
		"P":       page,
		"F":       types.Integer(annotPrint),
		"BS":      types.Dict{"W": types.Integer(1), "S": types.Name("S")},
	}
	mk := types.Dict{"BC": types.NewNumberArray(borderColor[:]...)}

	flags := 0
	if field.Required {
		flags |= flagRequired
	}

	border, err := f.appearance(r, borderOps(r), nil)
	if err != nil {
		return types.IndirectRef{}, err
	}

	switch field.Type {
	case layout.FieldTypeText:
		d["FT"] = types.Name("Tx")
		d["DA"] = types.StringLiteral(defaultAppearance)
		d["V"] = types.StringLiteral("")
		d["AP"] = types.Dict{"N": border}

	case layout.FieldTypeCheckbox:
		on, err := f.appearance(r, borderOps(r)+checkOps(r), types.Dict{"Font": types.Dict{"ZaDb": f.zadb}})
		if err != nil {
			return types.IndirectRef{}, err
		}
		d["FT"] = types.Name("Btn")
		d["DA"] = types.StringLiteral("/ZaDb 0 Tf 0 g")
		d["V"] = types.Name("Off")
		d["AS"] = types.Name("Off")
		d["AP"] = types.Dict{"N": types.Dict{"Yes": on, "Off": border}}
		mk["CA"] = types.StringLiteral(checkGlyph)

	case layout.FieldTypeDropdown:
		opts := make(types.Array, len(field.Options))
		for i, o := range field.Options {
			opts[i] = textString(o)
		}
		flags |= flagCombo
		d["FT"] = types.Name("Ch")
		d["DA"] = types.StringLiteral(defaultAppearance)
		d["Opt"] = opts
		d["AP"] = types.Dict{"N": border}

	default:
		return types.IndirectRef{}, fmt.Errorf("%w: %q", layout.ErrUnknownFieldType, field.Type)
	}

	d["MK"] = mk
	if flags != 0 {
		d["Ff"] = types.Integer(flags)
	}

	ref, err := f.ctx.IndRefForNewObject(d)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to add widget: %w", err)
	}

	f.fields = append(f.fields, *ref)
	f.names[field.Name] = true
	return *ref, nil
}

// check rejects a field before any object is allocated for it
func (f *acroForm) check(field *layout.Field) error {
	if f.names[field.Name] {
		return fmt.Errorf("%w: %q", ErrDuplicateName, field.Name)
	}
	switch field.Type {
	case layout.FieldTypeText, layout.FieldTypeCheckbox:
	case layout.FieldTypeDropdown:
		if len(field.Options) == 0 {
			return fmt.Errorf("dropdown %q has no options", field.Name)
		}
	default:
		return fmt.Errorf("%w: %q", layout.ErrUnknownFieldType, field.Type)
	}
	return nil
}

// appearance creates a form XObject of the widget's size drawing ops
func (f *acroForm) appearance(r layout.Rect, ops string, resources types.Dict) (types.IndirectRef, error) {
	sd, err := f.ctx.NewStreamDictForBuf([]byte(ops))
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to create appearance stream: %w", err)
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewNumberArray(0, 0, r.Width, r.Height))
	if resources != nil {
		sd.Insert("Resources", resources)
	}
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to encode appearance stream: %w", err)
	}

	ref, err := f.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("failed to add appearance stream: %w", err)
	}
	return *ref, nil
}

// close stores the grown Fields array back into the AcroForm dictionary
func (f *acroForm) close() {
	f.dict["Fields"] = f.fields
}

// borderOps strokes a 1pt border inside the widget box
func borderOps(r layout.Rect) string {
	return fmt.Sprintf("q %s RG 1 w 0.5 0.5 %s %s re S Q\n",
		numbers(borderColor[:]...), number(r.Width-1), number(r.Height-1))
}

// checkOps draws the ZapfDingbats check mark centred in the box
func checkOps(r layout.Rect) string {
	size := min(r.Width, r.Height) * 0.8
	x := (r.Width - size*0.75) / 2
	y := (r.Height - size*0.7) / 2
	return fmt.Sprintf("q BT 0 g /ZaDb %s Tf %s %s Td (%s) Tj ET Q\n",
		number(size), number(x), number(y), checkGlyph)
}

func number(f float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.3f", f), "0")
	return strings.TrimSuffix(s, ".")
}

func numbers(fs ...float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = number(f)
	}
	return strings.Join(parts, " ")
}

// textString encodes s as a PDF text string: a literal for ASCII, UTF-16BE
// with byte order mark otherwise
func textString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r > 0x7e || r < 0x20 {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapeLiteral(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(units))
	buf[0], buf[1] = 0xfe, 0xff
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
