//go:build !nopdf

package formats

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/JonMunkholm/sweeper/internal/core"
)

var pdfEncoder core.EncodeFunc = encodePDF

func encodePDF(w io.Writer, t *core.Table) error {
	lines, err := cp1252Lines(pdfLines(t))
	if err != nil {
		return err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	for _, line := range lines {
		doc.MultiCell(0, 6, line, "", "L", false)
		if err := doc.Error(); err != nil {
			return fmt.Errorf("write pdf page %d: %w", doc.PageNo(), err)
		}
	}

	return doc.Output(w)
}

// cp1252Lines encodes lines for the core fonts. A rune outside cp1252 fails
// the whole table rather than printing as a placeholder.
func cp1252Lines(lines []string) ([]string, error) {
	enc := charmap.Windows1252.NewEncoder()
	out := make([]string, len(lines))
	for n, line := range lines {
		s, err := enc.String(line)
		if err != nil {
			return nil, core.Unsupported("row %d: %s", n+1, unencodable(line))
		}
		out[n] = s
	}
	return out, nil
}

// unencodable names the first rune of s that cp1252 cannot hold.
func unencodable(s string) string {
	enc := charmap.Windows1252.NewEncoder()
	for _, r := range s {
		if _, err := enc.String(string(r)); err != nil {
			return fmt.Sprintf("PDF output cannot represent %q (U+%04X)", r, r)
		}
	}
	return "PDF output cannot represent the row"
}
