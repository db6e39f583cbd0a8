// Package testpdf writes small, valid PDF files for loader and service tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Line is one line of Helvetica text drawn at (X, Y)
type Line struct {
	Text string
	X, Y float64
	Size float64
}

// Page describes one page. With Form set the page carries a text widget
// named owner_name, a two-option radio group named package_selection and a
// link annotation.
type Page struct {
	Lines []Line
	Form  bool
}

// Document describes the file to write. MediaBox is set on the page tree
// root so pages inherit it.
type Document struct {
	MediaBox [4]float64
	Pages    []Page
}

// Letter returns an empty US Letter document description
func Letter(pages ...Page) Document {
	return Document{MediaBox: [4]float64{0, 0, 612, 792}, Pages: pages}
}

type builder struct {
	objects []string
}

// reserve allocates an object number to be filled in later
func (b *builder) reserve() int {
	b.objects = append(b.objects, "")
	return len(b.objects)
}

func (b *builder) set(num int, body string) {
	b.objects[num-1] = body
}

func (b *builder) add(body string) int {
	num := b.reserve()
	b.set(num, body)
	return num
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// Build renders the document as PDF bytes
func Build(doc Document) []byte {
	b := &builder{}
	catalog := b.reserve()
	pages := b.reserve()

	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	font := b.add(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths))
	appearance := b.add(stream("/Type /XObject /Subtype /Form /BBox [0 0 12 12]", ""))

	var kids, fields []string
	for _, page := range doc.Pages {
		var content strings.Builder
		for _, line := range page.Lines {
			size := line.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, line.X, line.Y, escape(line.Text))
		}
		contents := b.add(stream("", content.String()))
		pageNum := b.reserve()

		var annots []string
		if page.Form {
			radio := b.reserve()
			optA := b.add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /Parent %d 0 R /P %d 0 R /Rect [72 600 84 612] /AP << /N << /15 %d 0 R /Off %d 0 R >> >> >>", radio, pageNum, appearance, appearance))
			optB := b.add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /Parent %d 0 R /P %d 0 R /Rect [72 580 84 592] /AP << /N << /20 %d 0 R /Off %d 0 R >> >> >>", radio, pageNum, appearance, appearance))
			b.set(radio, fmt.Sprintf("<< /FT /Btn /Ff 49152 /T (package_selection) /V /20 /Kids [%d 0 R %d 0 R] >>", optA, optB))
			text := b.add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /P %d 0 R /FT /Tx /Ff 2 /T (owner_name) /V (Jane Doe) /Rect [100 700 300 720] >>", pageNum))
			link := b.add("<< /Type /Annot /Subtype /Link /Rect [0 0 10 10] >>")

			annots = []string{ref(optA), ref(optB), ref(text), ref(link)}
			fields = append(fields, ref(radio), ref(text))
		}

		dict := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R", pages, font, contents)
		if len(annots) > 0 {
			dict += " /Annots [" + strings.Join(annots, " ") + "]"
		}
		b.set(pageNum, dict+" >>")
		kids = append(kids, ref(pageNum))
	}

	box := doc.MediaBox
	b.set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [%g %g %g %g] >>",
		strings.Join(kids, " "), len(kids), box[0], box[1], box[2], box[3]))

	root := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pages)
	if len(fields) > 0 {
		root += " /AcroForm << /Fields [" + strings.Join(fields, " ") + "] >>"
	}
	b.set(catalog, root+" >>")

	return b.bytes(catalog)
}

func ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

func (b *builder) bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, root, xref)
	return buf.Bytes()
}

// WriteFile writes the document to path
func WriteFile(path string, doc Document) error {
	return os.WriteFile(path, Build(doc), 0o644)
}
