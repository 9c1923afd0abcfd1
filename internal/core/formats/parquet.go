package formats

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// Parquet reads every column of a parquet file and writes numeric columns
// as float64, boolean columns as bool and everything else as string.
func Parquet() core.Codec {
	return core.Codec{
		Format:      core.FormatParquet,
		Label:       "Parquet",
		ContentType: "application/vnd.apache.parquet",
		Decode:      decodeParquet,
		Encode:      encodeParquet,
	}
}

func decodeParquet(data []byte) (t *core.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = core.Malformed("read parquet: %v", r)
		}
	}()

	pf, err := file.NewParquetReader(bytes.NewReader(data), file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, core.Malformed("open parquet: %v", err)
	}
	defer pf.Close()

	mem := memory.DefaultAllocator
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, core.Malformed("create arrow reader: %v", err)
	}

	tbl, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, core.Malformed("read parquet data: %v", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}

	t = core.NewTable(core.UniqueColumns(names)...)
	rows := int(tbl.NumRows())
	t.Rows = make([][]core.Cell, rows)
	for r := range t.Rows {
		t.Rows[r] = make([]core.Cell, len(names))
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		offset := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				t.Rows[offset+i][c] = arrowCell(chunk, i)
			}
			offset += chunk.Len()
		}
	}
	return t, nil
}

// arrowCell converts one value of an arrow array to a cell.
func arrowCell(arr arrow.Array, i int) core.Cell {
	if arr.IsNull(i) {
		return core.Null()
	}
	switch a := arr.(type) {
	case *array.String:
		return core.Text(a.Value(i))
	case *array.LargeString:
		return core.Text(a.Value(i))
	case *array.Boolean:
		return core.Bool(a.Value(i))
	case *array.Float64:
		return floatCell(a.Value(i))
	case *array.Float32:
		return floatCell(float64(a.Value(i)))
	case *array.Int64:
		return core.Number(float64(a.Value(i)))
	case *array.Int32:
		return core.Number(float64(a.Value(i)))
	case *array.Int16:
		return core.Number(float64(a.Value(i)))
	case *array.Int8:
		return core.Number(float64(a.Value(i)))
	case *array.Uint64:
		return core.Number(float64(a.Value(i)))
	case *array.Uint32:
		return core.Number(float64(a.Value(i)))
	case *array.Uint16:
		return core.Number(float64(a.Value(i)))
	case *array.Uint8:
		return core.Number(float64(a.Value(i)))
	default:
		return core.Text(arr.ValueStr(i))
	}
}

// floatCell reads NaN as missing, the way NA markers read in csv.
func floatCell(f float64) core.Cell {
	if math.IsNaN(f) {
		return core.Null()
	}
	return core.Number(f)
}

// parquetType picks the arrow type a column is written as.
func parquetType(t *core.Table, col int) arrow.DataType {
	kind := core.KindNull
	for _, row := range t.Rows {
		c := row[col]
		if c.IsNull() {
			continue
		}
		if kind != core.KindNull && kind != c.Kind {
			return arrow.BinaryTypes.String
		}
		kind = c.Kind
	}
	switch kind {
	case core.KindNumber:
		return arrow.PrimitiveTypes.Float64
	case core.KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func encodeParquet(w io.Writer, t *core.Table) error {
	if len(t.Columns) == 0 {
		return core.Unsupported("parquet output needs at least one column")
	}

	fields := make([]arrow.Field, len(t.Columns))
	for i, name := range t.Columns {
		fields[i] = arrow.Field{Name: name, Type: parquetType(t, i), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i := range t.Columns {
		fb := b.Field(i)
		for _, row := range t.Rows {
			c := row[i]
			if c.IsNull() {
				fb.AppendNull()
				continue
			}
			switch fb := fb.(type) {
			case *array.Float64Builder:
				fb.Append(c.Number)
			case *array.BooleanBuilder:
				fb.Append(c.Bool)
			case *array.StringBuilder:
				fb.Append(c.String())
			default:
				return fmt.Errorf("unexpected builder %T", fb)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("write parquet record: %w", err)
	}
	return writer.Close()
}
