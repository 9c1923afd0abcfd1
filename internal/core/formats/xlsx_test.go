package formats

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sweeper/internal/core"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestXLSX_Decode(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"id", "name", nil, "active"},
		{1, "Ann!", "x", true},
		{2.5, nil, "y", false},
		{3, "Bo"},
	})

	tbl := mustDecode(t, XLSX(), data)

	wantCols := []string{"id", "name", "Unnamed: 2", "active"}
	for i, c := range wantCols {
		if tbl.Columns[i] != c {
			t.Errorf("Columns[%d] = %q, want %q", i, tbl.Columns[i], c)
		}
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	tests := []struct {
		row, col int
		want     core.Cell
	}{
		{0, 0, core.Number(1)},
		{0, 1, core.Text("Ann!")},
		{0, 3, core.Bool(true)},
		{1, 0, core.Number(2.5)},
		{1, 1, core.Null()},
		{1, 3, core.Bool(false)},
		{2, 2, core.Null()},
		{2, 3, core.Null()},
	}
	for _, tt := range tests {
		if got := tbl.Rows[tt.row][tt.col]; !got.Equal(tt.want) {
			t.Errorf("cell[%d][%d] = %+v, want %+v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestXLSX_DecodeMalformed(t *testing.T) {
	_, err := XLSX().Decode([]byte("not a workbook"))
	if !errors.Is(err, core.ErrMalformedInput) {
		t.Errorf("error = %v, want ErrMalformedInput", err)
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	tbl := core.NewTable("id", "name", "ok")
	_ = tbl.Append([]core.Cell{core.Number(1), core.Text("Ann Lee"), core.Bool(true)})
	_ = tbl.Append([]core.Cell{core.Number(-2.25), core.Text("Bo"), core.Bool(false)})

	data := mustEncode(t, XLSX(), tbl)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Sheet1" {
		t.Errorf("sheets = %v, want [Sheet1]", sheets)
	}

	back := mustDecode(t, XLSX(), data)
	if !back.Equal(tbl) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back.Rows, tbl.Rows)
	}
}

func TestXLSX_EncodeEmpty(t *testing.T) {
	back := mustDecode(t, XLSX(), mustEncode(t, XLSX(), core.NewTable("a", "b")))

	if back.Len() != 0 || len(back.Columns) != 2 {
		t.Errorf("table = %+v, want header only", back)
	}
}
