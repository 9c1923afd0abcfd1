package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sweeper/internal/core"
)

const scenarioA = "a,b\n1,x!\n1,x!\n2,\n"

// run executes the CLI with args and returns what it wrote.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestClean_ScenarioA(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	_, stderr, err := run(t, "clean", in, "--dir", dir)
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "cleaned_data.csv")); got != "a,b\n1,x\n" {
		t.Errorf("cleaned_data.csv = %q, want %q", got, "a,b\n1,x\n")
	}
	if !strings.Contains(stderr, "3 rows in, 1 out (1 duplicates, 1 incomplete removed; 1 cells sanitized)") {
		t.Errorf("summary = %q", stderr)
	}
}

func TestClean_Quiet(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	_, stderr, err := run(t, "clean", in, "--dir", dir, "-q")
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if stderr != "" {
		t.Errorf("quiet run wrote %q", stderr)
	}
}

func TestClean_Targets(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"flag", []string{"--to", "json"}, "cleaned_data.json"},
		{"alias", []string{"--to", "YML"}, "cleaned_data.yaml"},
		{"spreadsheet", []string{"--to", "xlsx"}, "cleaned_data.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := writeFile(t, dir, "data.csv", scenarioA)

			args := append([]string{"clean", in, "--dir", dir}, tt.args...)
			if _, _, err := run(t, args...); err != nil {
				t.Fatalf("clean error = %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, tt.want)); err != nil {
				t.Errorf("%s not written: %v", tt.want, err)
			}
		})
	}
}

func TestClean_OutputPath(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)
	out := filepath.Join(dir, "custom.json")

	if _, _, err := run(t, "clean", in, "--to", "json", "-o", out); err != nil {
		t.Fatalf("clean error = %v", err)
	}

	got := readFile(t, out)
	if !strings.Contains(got, `"b": "x"`) {
		t.Errorf("custom.json = %q", got)
	}
}

func TestClean_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	stdout, _, err := run(t, "clean", in, "-o", "-")
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if stdout != "a,b\n1,x\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "cleaned_data.csv")); err == nil {
		t.Error("stdout mode also wrote a file")
	}
}

func TestClean_Errors(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "data.csv", scenarioA)
	exe := writeFile(t, dir, "setup.exe", "MZ")
	bad := writeFile(t, dir, "broken.json", "{")

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"unsupported suffix", []string{"clean", exe, "--dir", dir}, core.ErrUnsupportedFormat},
		{"malformed input", []string{"clean", bad, "--dir", dir}, core.ErrMalformedInput},
		{"unknown target", []string{"clean", csv, "--dir", dir, "--to", "exe"}, core.ErrSerializationUnsupported},
		{"missing file", []string{"clean", filepath.Join(dir, "nope.csv")}, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "cleaned_data") {
			t.Errorf("failed sweep wrote %s", e.Name())
		}
	}
}

func TestClean_FlagErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	tests := []struct {
		name string
		args []string
	}{
		{"no file", []string{"clean"}},
		{"dir and output", []string{"clean", in, "--dir", dir, "-o", filepath.Join(dir, "x.csv")}},
		{"directory input", []string{"clean", dir}},
		{"bad log level", []string{"clean", in, "--log-level", "loud"}},
		{"missing config", []string{"clean", in, "--config", filepath.Join(dir, "absent.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestClean_TooLarge(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)
	t.Setenv("SWEEPER_MAX_FILE_SIZE", "4")

	_, _, err := run(t, "clean", in, "--dir", dir)
	if err == nil || core.MapError(err).Code != "FILE001" {
		t.Errorf("error = %v, want FILE001", err)
	}
}

func TestClean_MaxFileSizeSetting(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	t.Run("human size", func(t *testing.T) {
		t.Setenv("SWEEPER_MAX_FILE_SIZE", "1KB")
		if _, _, err := run(t, "clean", in, "--dir", dir); err != nil {
			t.Errorf("clean error = %v", err)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("SWEEPER_MAX_FILE_SIZE", "lots")
		if _, _, err := run(t, "clean", in, "--dir", dir); err == nil || !strings.Contains(err.Error(), "max_file_size") {
			t.Errorf("error = %v, want max_file_size error", err)
		}
	})
}

func TestClean_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := writeFile(t, dir, "sweeper.yaml", "to: yaml\ndir: "+outDir+"\n")

	if _, _, err := run(t, "clean", in, "--config", cfg); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cleaned_data.yaml")); err != nil {
		t.Errorf("config target/dir not applied: %v", err)
	}

	// Flags win over the config file.
	if _, _, err := run(t, "clean", in, "--config", cfg, "--to", "csv"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cleaned_data.csv")); err != nil {
		t.Errorf("flag did not override config: %v", err)
	}
}

func TestClean_EnvTarget(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)
	t.Setenv("SWEEPER_TO", "json")

	if _, _, err := run(t, "clean", in, "--dir", dir); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cleaned_data.json")); err != nil {
		t.Errorf("SWEEPER_TO not applied: %v", err)
	}
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	stdout, _, err := run(t, "preview", in)
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}

	for _, want := range []string{
		"Original data (3 rows)",
		"x!",
		"null",
		"Cleaned data (1 row)",
		"Removed: 1 duplicate, 1 incomplete; 1 cells sanitized",
		"Output:  cleaned_data.csv (csv, 8 B)",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("preview missing %q:\n%s", want, stdout)
		}
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Errorf("preview wrote files: %v", entries)
	}
}

func TestPreview_Rows(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", scenarioA)

	stdout, _, err := run(t, "preview", in, "--rows", "1", "--to", "json")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	if !strings.Contains(stdout, "Original data (3 rows, showing 1)") {
		t.Errorf("row limit not applied:\n%s", stdout)
	}
	if !strings.Contains(stdout, "cleaned_data.json (json,") {
		t.Errorf("target not applied:\n%s", stdout)
	}
}

func TestPreview_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	writePreview(&buf, "Cleaned data", core.Preview{})

	if got := buf.String(); got != "Cleaned data (0 rows)\n  (no columns)\n" {
		t.Errorf("writePreview() = %q", got)
	}
}

func TestFormats(t *testing.T) {
	stdout, _, err := run(t, "formats")
	if err != nil {
		t.Fatalf("formats error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want header + 8:\n%s", len(lines), stdout)
	}
	for _, want := range []string{"csv", "yml", "parquet", "text/csv; charset=utf-8"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("formats missing %q", want)
		}
	}
}
