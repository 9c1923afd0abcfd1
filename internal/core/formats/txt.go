package formats

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// Text reads one row per line into the "Text" column and writes the text
// column back joined with newlines.
func Text() core.Codec {
	return core.Codec{
		Format:      core.FormatText,
		Label:       "Plain text",
		Extensions:  []string{"text"},
		ContentType: "text/plain; charset=utf-8",
		Decode:      decodeText,
		Encode:      encodeText,
	}
}

// decodeUTF8 validates data as UTF-8 and strips a leading byte order mark.
func decodeUTF8(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", core.ErrDecodeFailure)
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecodeFailure, err)
	}
	return out, nil
}

func decodeText(data []byte) (*core.Table, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}

	t := core.NewTable(core.TextColumn)
	for _, line := range SplitLines(string(text)) {
		t.Rows = append(t.Rows, []core.Cell{core.Text(line)})
	}
	return t, nil
}

// isLineBreak reports whether r ends a line. "\r\n" is handled by the caller.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// SplitLines splits s at every Unicode line boundary. "\r\n" counts as one
// break, and a trailing break does not start an extra empty line.
func SplitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, s[start:i])
		i += size
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// textColumn returns the column line-oriented writers emit.
func textColumn(t *core.Table, target string) (int, error) {
	i, ok := t.TextColumnIndex()
	if !ok {
		return -1, core.Unsupported("%s output needs a %q column or a single column, table has %d", target, core.TextColumn, len(t.Columns))
	}
	return i, nil
}

func encodeText(w io.Writer, t *core.Table) error {
	col, err := textColumn(t, "plain text")
	if err != nil {
		return err
	}

	for n, row := range t.Rows {
		if n > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, row[col].String()); err != nil {
			return err
		}
	}
	return nil
}
