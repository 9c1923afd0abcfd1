package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// xlsxSheet is the sheet name written to every workbook.
const xlsxSheet = "Sheet1"

// XLSX reads the first sheet of a workbook and writes a single-sheet
// workbook.
func XLSX() core.Codec {
	return core.Codec{
		Format:      core.FormatXLSX,
		Label:       "Excel workbook",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Decode:      decodeXLSX,
		Encode:      encodeXLSX,
	}
}

func decodeXLSX(data []byte) (*core.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.Malformed("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.NewTable(), nil
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, core.Malformed("read sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return core.NewTable(), nil
	}
	restoreBools(f, sheets[0], rows)

	header := rows[0]
	records := rows[1:]

	// GetRows drops trailing empty cells, so a record can be wider than a
	// header whose last cells are blank.
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}

	return buildTable(header, records)
}

// restoreBools rewrites boolean cells, which raw reads report as "1" and
// "0", to TRUE and FALSE.
func restoreBools(f *excelize.File, sheet string, rows [][]string) {
	for r, rec := range rows {
		for c, v := range rec {
			if v != "0" && v != "1" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			if typ, err := f.GetCellType(sheet, name); err == nil && typ == excelize.CellTypeBool {
				if v == "1" {
					rec[c] = "TRUE"
				} else {
					rec[c] = "FALSE"
				}
			}
		}
	}
}

func encodeXLSX(w io.Writer, t *core.Table) error {
	if len(t.Columns) > excelize.MaxColumns {
		return core.Unsupported("workbook allows %d columns, table has %d", excelize.MaxColumns, len(t.Columns))
	}
	if t.Len()+1 > excelize.TotalRows {
		return core.Unsupported("workbook allows %d rows, table has %d", excelize.TotalRows-1, t.Len())
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	values := make([]any, len(t.Columns))
	for n, row := range t.Rows {
		for i, c := range row {
			values[i] = xlsxValue(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			if errors.Is(err, excelize.ErrCellCharsLength) {
				return core.Unsupported("row %d: %v", n+1, err)
			}
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	return f.Write(w)
}

func xlsxValue(c core.Cell) any {
	switch c.Kind {
	case core.KindNumber:
		return c.Number
	case core.KindBool:
		return c.Bool
	case core.KindText:
		return c.Text
	default:
		return nil
	}
}
