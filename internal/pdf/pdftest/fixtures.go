// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Page describes one page of a generated document
type Page struct {
	Width, Height float64
	Text          string
}

// Letter is a US letter page in points
var Letter = Page{Width: 612, Height: 792, Text: "Application form"}

// Document renders a minimal PDF with one object per catalog, page tree,
// page and content stream, and a correct cross-reference table.
func Document(pages ...Page) []byte {
	if len(pages) == 0 {
		pages = []Page{Letter}
	}

	var objects []string
	kids := make([]string, len(pages))
	// 1 catalog, 2 pages, 3 font, then a page/content pair per page
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects = append(objects,
		"<<\n/Type /Catalog\n/Pages 2 0 R\n>>",
		fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>", strings.Join(kids, " "), len(pages)),
		"<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n>>",
	)
	for i, p := range pages {
		contentNum := 5 + 2*i
		objects = append(objects, fmt.Sprintf(
			"<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %s %s]\n/Contents %d 0 R\n/Resources <<\n/Font <<\n/F1 3 0 R\n>>\n>>\n>>",
			num(p.Width), num(p.Height), contentNum))

		content := fmt.Sprintf("BT\n/F1 12 Tf\n72 %s Td\n(%s) Tj\nET\n", num(p.Height-72), p.Text)
		objects = append(objects, fmt.Sprintf("<<\n/Length %d\n>>\nstream\n%sendstream", len(content), content))
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return []byte(b.String())
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
