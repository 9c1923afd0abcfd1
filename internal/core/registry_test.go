package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// lineCodec is a minimal test codec: one Text row per line.
func lineCodec(f Format, exts ...string) Codec {
	return Codec{
		Format:      f,
		Label:       "Lines",
		Extensions:  exts,
		ContentType: "text/plain",
		Decode: func(data []byte) (*Table, error) {
			if bytes.HasPrefix(data, []byte("BAD")) {
				return nil, Malformed("bad header")
			}
			t := NewTable(TextColumn)
			for _, l := range strings.Split(string(data), "\n") {
				if l == "" {
					continue
				}
				if err := t.Append([]Cell{Text(l)}); err != nil {
					return nil, err
				}
			}
			return t, nil
		},
		Encode: func(w io.Writer, t *Table) error {
			idx, ok := t.TextColumnIndex()
			if !ok {
				return Unsupported("need one column")
			}
			for _, row := range t.Rows {
				if _, err := io.WriteString(w, row[idx].String()+"\n"); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(lineCodec(FormatText, "text"))
	r.Register(lineCodec(FormatCSV))
	// Read-only: no writer in this build.
	pdf := lineCodec(FormatPDF)
	pdf.Encode = nil
	r.Register(pdf)
	return r
}

func TestRegistry_RegisterPanicsOnDuplicate(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
	}{
		{"same format", lineCodec(FormatText)},
		{"same extension", lineCodec(FormatJSON, "TEXT")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRegistry()
			defer func() {
				if recover() == nil {
					t.Error("Register() did not panic")
				}
			}()
			r.Register(tt.codec)
		})
	}
}

func TestRegistry_FormatFromFileName(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{"plain", "data.csv", FormatCSV, false},
		{"case insensitive", "DATA.CSV", FormatCSV, false},
		{"alias", "notes.text", FormatText, false},
		{"path with dots", "dir.v2/report.final.txt", FormatText, false},
		{"unknown suffix", "image.png", "", true},
		{"no suffix", "README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FormatFromFileName(tt.file)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatFromFileName(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestRegistry_Ingest(t *testing.T) {
	r := testRegistry()

	t.Run("decodes", func(t *testing.T) {
		tbl, err := r.Ingest([]byte("a\nb\n"), FormatText)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if tbl.Len() != 2 {
			t.Errorf("Len() = %d, want 2", tbl.Len())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := r.Ingest(nil, FormatYAML)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("malformed input is wrapped with stage", func(t *testing.T) {
		tbl, err := r.Ingest([]byte("BAD"), FormatText)
		if tbl != nil {
			t.Error("Ingest() returned a partial table")
		}
		var se *SweepError
		if !errors.As(err, &se) {
			t.Fatalf("error %v is not a *SweepError", err)
		}
		if se.Stage != StageIngest || se.Format != FormatText {
			t.Errorf("SweepError = %+v, want ingest/txt", se)
		}
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("error = %v, want ErrMalformedInput", err)
		}
	})
}

func TestRegistry_Serialize(t *testing.T) {
	r := testRegistry()
	tbl := NewTable(TextColumn)
	_ = tbl.Append([]Cell{Text("hello")})

	t.Run("writes and names output", func(t *testing.T) {
		out, err := r.Serialize(tbl, FormatText)
		if err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}
		if out.FileName != "cleaned_data.txt" {
			t.Errorf("FileName = %q, want cleaned_data.txt", out.FileName)
		}
		if string(out.Data) != "hello\n" {
			t.Errorf("Data = %q, want %q", out.Data, "hello\n")
		}
	})

	t.Run("missing writer fails explicitly", func(t *testing.T) {
		out, err := r.Serialize(tbl, FormatPDF)
		if out != nil {
			t.Error("Serialize() returned output alongside an error")
		}
		if !errors.Is(err, ErrSerializationUnsupported) {
			t.Errorf("error = %v, want ErrSerializationUnsupported", err)
		}

		// Other targets keep working.
		if _, err := r.Serialize(tbl, FormatCSV); err != nil {
			t.Errorf("csv Serialize() error = %v", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := r.Serialize(tbl, Format("exe"))
		if !errors.Is(err, ErrSerializationUnsupported) {
			t.Errorf("error = %v, want ErrSerializationUnsupported", err)
		}
	})

	t.Run("unrepresentable table", func(t *testing.T) {
		wide := NewTable("a", "b")
		_, err := r.Serialize(wide, FormatText)
		if !errors.Is(err, ErrSerializationUnsupported) {
			t.Errorf("error = %v, want ErrSerializationUnsupported", err)
		}
	})
}

func TestRegistry_AllSorted(t *testing.T) {
	r := testRegistry()
	all := r.All()

	if len(all) != r.Count() {
		t.Fatalf("len(All()) = %d, Count() = %d", len(all), r.Count())
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Format > all[i].Format {
			t.Errorf("All() not sorted: %s before %s", all[i-1].Format, all[i].Format)
		}
	}
	if all[0].Format != FormatCSV {
		t.Errorf("All()[0] = %s, want csv", all[0].Format)
	}
}
