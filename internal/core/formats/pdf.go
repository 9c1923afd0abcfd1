package formats

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// PDF extracts page text into the "Text" column, one row per printed line,
// top to bottom. Blank lines are dropped. The writer uses the cp1252 core
// fonts and rejects text outside that code page. It is compiled out by the
// nopdf build tag, in which case a pdf target fails with
// core.ErrSerializationUnsupported.
func PDF() core.Codec {
	return core.Codec{
		Format:      core.FormatPDF,
		Label:       "PDF document",
		ContentType: "application/pdf",
		Decode:      decodePDF,
		Encode:      pdfEncoder,
	}
}

func decodePDF(data []byte) (t *core.Table, err error) {
	// The reader panics on some damaged cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = core.Malformed("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, core.Malformed("open pdf: %v", err)
	}

	t = core.NewTable(core.TextColumn)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, core.Malformed("page %d: %v", i, err)
		}
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if strings.TrimSpace(line.String()) == "" {
				continue
			}
			t.Rows = append(t.Rows, []core.Cell{core.Text(line.String())})
		}
	}
	return t, nil
}

// pdfLines renders each row as one printed line: the value itself for a
// single-column table, otherwise every value joined with " | ".
func pdfLines(t *core.Table) []string {
	lines := make([]string, len(t.Rows))
	for n, row := range t.Rows {
		if len(row) == 1 {
			lines[n] = row[0].String()
			continue
		}
		parts := make([]string, len(row))
		for i, c := range row {
			parts[i] = c.String()
		}
		lines[n] = strings.Join(parts, " | ")
	}
	return lines
}
