package core

import (
	"strings"
	"unicode"
)

// NormalizeReport counts what the Normalizer removed or changed.
type NormalizeReport struct {
	RowsIn            int `json:"rowsIn"`
	RowsOut           int `json:"rowsOut"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
	IncompleteRemoved int `json:"incompleteRemoved"`
	CellsSanitized    int `json:"cellsSanitized"`
	CollapsedRows     int `json:"collapsedRows"`
}

// Normalize returns a cleaned copy of t; t itself is not modified.
//
// Steps run in a fixed order:
//  1. drop rows that duplicate an earlier row (first occurrence wins)
//  2. drop rows holding a null in any column
//  3. sanitize text cells: keep letters, digits and whitespace, then trim
//  4. collapse rows that step 3 made identical
//
// Steps 1 and 2 see the original values. Step 4 keeps the result free of
// duplicates, which makes Normalize idempotent.
func Normalize(t *Table) (*Table, NormalizeReport) {
	report := NormalizeReport{RowsIn: t.Len()}
	out := NewTable(t.Columns...)

	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}

		if hasNull(row) {
			report.IncompleteRemoved++
			continue
		}

		cleaned := make([]Cell, len(row))
		for i, c := range row {
			if c.Kind == KindText {
				s := SanitizeText(c.Text)
				if s != c.Text {
					report.CellsSanitized++
				}
				c = Text(s)
			}
			cleaned[i] = c
		}
		out.Rows = append(out.Rows, cleaned)
	}

	collapsed := make(map[string]struct{}, len(out.Rows))
	kept := out.Rows[:0]
	for _, row := range out.Rows {
		key := rowKey(row)
		if _, dup := collapsed[key]; dup {
			report.CollapsedRows++
			continue
		}
		collapsed[key] = struct{}{}
		kept = append(kept, row)
	}
	out.Rows = kept

	report.RowsOut = out.Len()
	return out, report
}

func hasNull(row []Cell) bool {
	for _, c := range row {
		if c.IsNull() {
			return true
		}
	}
	return false
}

// SanitizeText keeps only letters, digits and whitespace and trims
// surrounding whitespace.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if IsAlnum(r) || IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimFunc(b.String(), IsSpace)
}

// IsAlnum reports whether r is a letter or a number in any script.
func IsAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// IsSpace reports whether r is whitespace. On top of unicode.IsSpace it
// accepts the ASCII file/group/record/unit separators.
func IsSpace(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}
