package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the tag selecting an ingest/serialize strategy. The tag doubles
// as the canonical file extension.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatText    Format = "txt"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatDOCX    Format = "docx"
	FormatPDF     Format = "pdf"
	FormatParquet Format = "parquet"
)

// OutputBaseName is the stem of every cleaned file.
const OutputBaseName = "cleaned_data"

// OutputFileName returns the download name for a target format.
func OutputFileName(f Format) string {
	return OutputBaseName + "." + string(f)
}

// NormalizeFormat lowercases and trims a user-supplied tag and strips a
// leading dot, so ".CSV" and "csv" are the same.
func NormalizeFormat(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// extensionOf returns the normalized suffix of a file name.
func extensionOf(fileName string) string {
	return NormalizeFormat(filepath.Ext(fileName))
}

// FormatFromFileName resolves a file name's suffix against the registry.
func (r *Registry) FormatFromFileName(fileName string) (Format, error) {
	ext := extensionOf(fileName)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no file extension", ErrUnsupportedFormat, fileName)
	}
	f, ok := r.Lookup(ext)
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// FormatFromFileName resolves a suffix against the default registry.
func FormatFromFileName(fileName string) (Format, error) {
	return defaultRegistry.FormatFromFileName(fileName)
}
