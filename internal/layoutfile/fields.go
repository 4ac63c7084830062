package layoutfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// The .fields format is one statement per line:
//
//	# comment
//	canvas 918 x 1188
//	text "full_name" at 40, 60 size 240 x 30 required
//	checkbox "agree" at 40, 120
//	dropdown "country" at 40, 180 options "Canada", "Mexico" required
var (
	fieldsLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Punct", Pattern: `,`},
	})

	fieldsParser = participle.MustBuild[fieldsFile](
		participle.Lexer(fieldsLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

type fieldsFile struct {
	Statements []*fieldsStatement `parser:"( @@ | Newline )*"`
}

type fieldsStatement struct {
	Canvas *canvasStatement `parser:"  @@"`
	Field  *fieldStatement  `parser:"| @@"`
}

type canvasStatement struct {
	Width  float64 `parser:"'canvas' @Number 'x'"`
	Height float64 `parser:"@Number"`
}

type fieldStatement struct {
	Type     string      `parser:"@( 'text' | 'checkbox' | 'dropdown' )"`
	Name     string      `parser:"@String"`
	X        float64     `parser:"'at' @Number ','"`
	Y        float64     `parser:"@Number"`
	Size     *sizeClause `parser:"@@?"`
	Options  []string    `parser:"( 'options' @String ( ',' @String )* )?"`
	Required bool        `parser:"@'required'?"`
}

type sizeClause struct {
	Width  float64 `parser:"'size' @Number 'x'"`
	Height float64 `parser:"@Number"`
}

// ParseFields parses the line based .fields format
func ParseFields(input string) (*Document, error) {
	file, err := fieldsParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("invalid fields layout: %w", err)
	}

	doc := &Document{}
	for _, st := range file.Statements {
		switch {
		case st.Canvas != nil:
			doc.Canvas = layout.Size{Width: st.Canvas.Width, Height: st.Canvas.Height}
		case st.Field != nil:
			f := st.Field
			spec := FieldSpec{
				Type:     layout.FieldType(f.Type),
				Name:     f.Name,
				X:        f.X,
				Y:        f.Y,
				Required: f.Required,
				Options:  f.Options,
			}
			if f.Size != nil {
				spec.Width, spec.Height = f.Size.Width, f.Size.Height
			}
			doc.Fields = append(doc.Fields, spec)
		}
	}
	return doc, nil
}

// FormatFieldsText renders doc in the .fields format
func FormatFieldsText(doc *Document) string {
	var b strings.Builder
	if !doc.Canvas.IsZero() {
		fmt.Fprintf(&b, "canvas %s x %s\n", num(doc.Canvas.Width), num(doc.Canvas.Height))
	}
	for _, f := range doc.Fields {
		fmt.Fprintf(&b, "%s %s at %s, %s", f.Type, strconv.Quote(f.Name), num(f.X), num(f.Y))
		if f.Width > 0 && f.Height > 0 {
			fmt.Fprintf(&b, " size %s x %s", num(f.Width), num(f.Height))
		}
		if len(f.Options) > 0 {
			quoted := make([]string, len(f.Options))
			for i, o := range f.Options {
				quoted[i] = strconv.Quote(o)
			}
			b.WriteString(" options " + strings.Join(quoted, ", "))
		}
		if f.Required {
			b.WriteString(" required")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
