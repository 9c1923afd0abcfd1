package formats

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// JSON reads an array of flat objects and writes one back, keys in column
// order, indented by four spaces.
func JSON() core.Codec {
	return core.Codec{
		Format:      core.FormatJSON,
		Label:       "JSON records",
		ContentType: "application/json",
		Decode:      decodeJSON,
		Encode:      encodeJSON,
	}
}

// records collects rows keyed by column name, with columns in order of
// first appearance. Shared by the json and yaml readers.
type records struct {
	columns []string
	index   map[string]int
	rows    []map[string]core.Cell
}

func newRecords() *records {
	return &records{index: make(map[string]int)}
}

func (r *records) add(row map[string]core.Cell, keys []string) {
	for _, k := range keys {
		if _, ok := r.index[k]; !ok {
			r.index[k] = len(r.columns)
			r.columns = append(r.columns, k)
		}
	}
	r.rows = append(r.rows, row)
}

func (r *records) table() *core.Table {
	t := core.NewTable(r.columns...)
	t.Rows = make([][]core.Cell, len(r.rows))
	for n, rec := range r.rows {
		row := make([]core.Cell, len(r.columns))
		for i, col := range r.columns {
			if c, ok := rec[col]; ok {
				row[i] = c
			} else {
				row[i] = core.Null()
			}
		}
		t.Rows[n] = row
	}
	return t
}

func decodeJSON(data []byte) (*core.Table, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(text) {
		return nil, core.Malformed("invalid JSON")
	}

	root := gjson.ParseBytes(text)
	if !root.IsArray() {
		return nil, core.Malformed("top-level value must be an array of objects, got %s", jsonKind(root))
	}

	recs := newRecords()
	var failure error
	n := 0
	root.ForEach(func(_, item gjson.Result) bool {
		n++
		if !item.IsObject() {
			failure = core.Malformed("element %d is %s, want object", n, jsonKind(item))
			return false
		}

		row := make(map[string]core.Cell)
		var keys []string
		item.ForEach(func(key, value gjson.Result) bool {
			cell, err := jsonCell(value)
			if err != nil {
				failure = core.Malformed("element %d key %q: %v", n, key.String(), err)
				return false
			}
			if _, dup := row[key.String()]; !dup {
				keys = append(keys, key.String())
			}
			row[key.String()] = cell
			return true
		})
		if failure != nil {
			return false
		}

		recs.add(row, keys)
		return true
	})
	if failure != nil {
		return nil, failure
	}

	return recs.table(), nil
}

func jsonKind(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "an array"
	case r.IsObject():
		return "an object"
	}
	switch r.Type {
	case gjson.String:
		return "a string"
	case gjson.Number:
		return "a number"
	case gjson.True, gjson.False:
		return "a boolean"
	default:
		return "null"
	}
}

func jsonCell(v gjson.Result) (core.Cell, error) {
	switch v.Type {
	case gjson.Null:
		return core.Null(), nil
	case gjson.True:
		return core.Bool(true), nil
	case gjson.False:
		return core.Bool(false), nil
	case gjson.Number:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return core.Cell{}, err
		}
		return core.NumberLiteral(v.Raw, f), nil
	case gjson.String:
		return core.Text(v.Str), nil
	default:
		return core.Cell{}, core.Malformed("nested %s values are not supported", jsonKind(v))
	}
}

// jsonNumberRegex matches the JSON number grammar.
var jsonNumberRegex = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

func encodeJSON(w io.Writer, t *core.Table) error {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for n, row := range t.Rows {
		if n > 0 {
			compact.WriteByte(',')
		}
		compact.WriteByte('{')
		for i, c := range row {
			if i > 0 {
				compact.WriteByte(',')
			}
			if err := writeJSONString(&compact, t.Columns[i]); err != nil {
				return err
			}
			compact.WriteByte(':')
			if err := writeJSONValue(&compact, c); err != nil {
				return err
			}
		}
		compact.WriteByte('}')
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return err
	}
	_, err := out.WriteTo(w)
	return err
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func writeJSONValue(buf *bytes.Buffer, c core.Cell) error {
	switch c.Kind {
	case core.KindNull:
		buf.WriteString("null")
	case core.KindBool:
		buf.WriteString(strconv.FormatBool(c.Bool))
	case core.KindNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return core.Unsupported("JSON has no representation for %v", c.Number)
		}
		if lit := c.String(); jsonNumberRegex.MatchString(lit) {
			buf.WriteString(lit)
		} else {
			buf.WriteString(strconv.FormatFloat(c.Number, 'g', -1, 64))
		}
	default:
		return writeJSONString(buf, c.Text)
	}
	return nil
}
