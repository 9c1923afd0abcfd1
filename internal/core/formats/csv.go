package formats

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// CSV reads and writes comma-separated files with a header row.
func CSV() core.Codec {
	return core.Codec{
		Format:      core.FormatCSV,
		Label:       "CSV",
		ContentType: "text/csv; charset=utf-8",
		Decode:      decodeCSV,
		Encode:      encodeCSV,
	}
}

func decodeCSV(data []byte) (*core.Table, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return core.NewTable(), nil
	}
	if err != nil {
		return nil, core.Malformed("read header: %v", err)
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.Malformed("%v", err)
		}
		records = append(records, rec)
	}

	return buildTable(header, records)
}

func encodeCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			record[i] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
