package formats

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/sweeper/internal/core"
)

func TestRegisterAll(t *testing.T) {
	r := core.NewRegistry()
	RegisterAll(r)

	if r.Count() != 8 {
		t.Errorf("Count() = %d, want 8", r.Count())
	}

	tests := []struct {
		file string
		want core.Format
	}{
		{"data.csv", core.FormatCSV},
		{"Book1.XLSX", core.FormatXLSX},
		{"notes.txt", core.FormatText},
		{"notes.text", core.FormatText},
		{"records.json", core.FormatJSON},
		{"records.yml", core.FormatYAML},
		{"records.yaml", core.FormatYAML},
		{"letter.docx", core.FormatDOCX},
		{"scan.pdf", core.FormatPDF},
		{"table.parquet", core.FormatParquet},
	}
	for _, tt := range tests {
		got, err := r.FormatFromFileName(tt.file)
		if err != nil || got != tt.want {
			t.Errorf("FormatFromFileName(%q) = %q, %v; want %q", tt.file, got, err, tt.want)
		}
	}

	for _, c := range r.All() {
		if !c.CanRead() {
			t.Errorf("%s cannot read", c.Format)
		}
		if c.ContentType == "" {
			t.Errorf("%s has no content type", c.Format)
		}
	}
}

func TestDefaultRegistryPopulated(t *testing.T) {
	if _, ok := core.DefaultRegistry().Get(core.FormatCSV); !ok {
		t.Error("default registry has no csv codec after init")
	}
}

// Every format converts to every other format it can represent.
func TestConversions(t *testing.T) {
	svc := core.NewService(core.ServiceOptions{})

	sources := map[string][]byte{
		"in.txt":  []byte("Hello, World!\nbye\n"),
		"in.csv":  []byte("Text\nHello!\nbye\n"),
		"in.json": []byte(`[{"Text": "Hello!"}, {"Text": "bye"}]`),
		"in.yaml": []byte("- Text: Hello!\n- Text: bye\n"),
	}

	for name, data := range sources {
		for _, c := range core.DefaultRegistry().All() {
			if !c.CanWrite() {
				continue
			}
			t.Run(name+"->"+string(c.Format), func(t *testing.T) {
				res, err := svc.Sweep(context.Background(), core.Request{FileName: name, Data: data, Target: c.Format})
				if err != nil {
					t.Fatalf("Sweep() error = %v", err)
				}
				if res.Output.FileName != core.OutputFileName(c.Format) {
					t.Errorf("FileName = %q", res.Output.FileName)
				}

				back, err := core.DefaultRegistry().Ingest(res.Output.Data, c.Format)
				if err != nil {
					t.Fatalf("re-ingest %s: %v", c.Format, err)
				}
				if back.Len() != res.Cleaned.Len() {
					t.Errorf("re-ingested %d rows, want %d", back.Len(), res.Cleaned.Len())
				}
			})
		}
	}
}

func TestSweep_UnsupportedSuffix(t *testing.T) {
	svc := core.NewService(core.ServiceOptions{})

	_, err := svc.Sweep(context.Background(), core.Request{FileName: "archive.zip", Data: []byte("PK")})
	if !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}
