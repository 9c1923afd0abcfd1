package formats

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"

	"github.com/JonMunkholm/sweeper/internal/core"
)

const documentPart = "word/document.xml"

// DOCX reads body paragraphs into the "Text" column and writes one
// paragraph per row.
//
// Blank paragraphs are dropped on read. Paragraphs nested in tables, text
// boxes or content controls are not body paragraphs and are skipped.
func DOCX() core.Codec {
	return core.Codec{
		Format:      core.FormatDOCX,
		Label:       "Word document",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Decode:      decodeDOCX,
		Encode:      encodeDOCX,
	}
}

func decodeDOCX(data []byte) (*core.Table, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, core.Malformed("open document: %v", err)
	}
	// Parse names the document only after it has read word/document.xml.
	if doc.Document.XMLName.Local != "document" {
		return nil, core.Malformed("%s not found", documentPart)
	}

	t := core.NewTable(core.TextColumn)
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(p)
		if strings.TrimSpace(text) == "" {
			continue
		}
		t.Rows = append(t.Rows, []core.Cell{core.Text(text)})
	}
	return t, nil
}

// paragraphText joins the visible text of p's runs, hyperlinks included.
// Drawings and field instructions carry no text.
func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRunText(&sb, c)
		case *docx.Hyperlink:
			writeRunText(&sb, &c.Run)
		}
	}
	return sb.String()
}

func writeRunText(sb *strings.Builder, r *docx.Run) {
	for _, child := range r.Children {
		switch c := child.(type) {
		case *docx.Text:
			sb.WriteString(c.Text)
		case *docx.Tab:
			sb.WriteByte('\t')
		case *docx.BarterRabbet:
			sb.WriteByte('\n')
		}
	}
}

func encodeDOCX(w io.Writer, t *core.Table) error {
	col, err := textColumn(t, "Word")
	if err != nil {
		return err
	}

	doc := docx.New().WithDefaultTheme()
	for _, row := range t.Rows {
		run := doc.AddParagraph().AddText(unifyBreaks(row[col].String()))
		for _, child := range run.Children {
			if text, ok := child.(*docx.Text); ok {
				text.XMLSpace = "preserve"
			}
		}
	}

	_, err = doc.WriteTo(w)
	return err
}

// unifyBreaks turns every line boundary into "\n", which the writer emits
// as w:br.
func unifyBreaks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if !isLineBreak(r) {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('\n')
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
	}
	return sb.String()
}
