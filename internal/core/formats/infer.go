package formats

// infer.go turns string records from tabular readers (csv, xlsx) into typed
// cells.
//
// A field is missing when it is empty or one of the usual spreadsheet and
// dataframe NA markers. A column becomes numeric when every present value is
// a decimal literal, boolean when every present value spells true or false,
// and text otherwise. Missing fields are null in every column type.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw tabular field stands for a missing value.
func IsMissing(s string) bool {
	_, ok := missingMarkers[s]
	return ok
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type columnKind int

const (
	columnEmpty columnKind = iota
	columnNumber
	columnBool
	columnText
)

// classify returns the kind every present value in column i agrees on.
func classify(records [][]string, i int) columnKind {
	kind := columnEmpty
	for _, rec := range records {
		if i >= len(rec) || IsMissing(rec[i]) {
			continue
		}
		v := rec[i]

		var k columnKind
		switch {
		case kind != columnBool && isNumber(v):
			k = columnNumber
		case kind != columnNumber && isBool(v):
			k = columnBool
		default:
			return columnText
		}
		if kind != columnEmpty && kind != k {
			return columnText
		}
		kind = k
	}
	return kind
}

func isNumber(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

func isBool(s string) bool {
	_, ok := parseBool(s)
	return ok
}

// buildTable types the records column by column. Records shorter than the
// header are padded with nulls; longer records are malformed.
func buildTable(header []string, records [][]string) (*core.Table, error) {
	t := core.NewTable(core.UniqueColumns(header)...)

	kinds := make([]columnKind, len(header))
	for i := range header {
		kinds[i] = classify(records, i)
	}

	for n, rec := range records {
		if len(rec) > len(header) {
			return nil, core.Malformed("row %d has %d fields, header has %d", n+1, len(rec), len(header))
		}

		row := make([]core.Cell, len(header))
		for i := range header {
			if i >= len(rec) || IsMissing(rec[i]) {
				row[i] = core.Null()
				continue
			}
			v := rec[i]
			switch kinds[i] {
			case columnNumber:
				f, _ := parseNumber(v)
				row[i] = core.NumberLiteral(strings.TrimSpace(v), f)
			case columnBool:
				b, _ := parseBool(v)
				row[i] = core.Bool(b)
			default:
				row[i] = core.Text(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
