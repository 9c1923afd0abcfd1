package core

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
)

// DecodeFunc reads a whole upload into a Table.
type DecodeFunc func(data []byte) (*Table, error)

// EncodeFunc writes a cleaned Table to w.
type EncodeFunc func(w io.Writer, t *Table) error

// Codec is the read/write strategy for one format. Either side may be nil
// when the format is read-only or write-only in this build.
type Codec struct {
	Format      Format
	Label       string   // Display name: "Spreadsheet"
	Extensions  []string // Extra accepted suffixes besides the tag itself
	ContentType string
	Decode      DecodeFunc
	Encode      EncodeFunc
}

// CanRead reports whether uploads in this format can be ingested.
func (c Codec) CanRead() bool { return c.Decode != nil }

// CanWrite reports whether cleaned tables can be written in this format.
func (c Codec) CanWrite() bool { return c.Encode != nil }

// Registry maps format tags and suffixes to codecs.
type Registry struct {
	mu      sync.RWMutex
	codecs  map[Format]Codec
	aliases map[string]Format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		codecs:  make(map[Format]Codec),
		aliases: make(map[string]Format),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that the formats
// package populates at init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a codec.
// Panics if the format or one of its extensions is already registered.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codecs[c.Format]; exists {
		panic(fmt.Sprintf("format already registered: %s", c.Format))
	}
	if c.Label == "" {
		c.Label = string(c.Format)
	}

	names := append([]string{string(c.Format)}, c.Extensions...)
	for _, name := range names {
		name = NormalizeFormat(name)
		if owner, exists := r.aliases[name]; exists {
			panic(fmt.Sprintf("extension %q already registered by %s", name, owner))
		}
		r.aliases[name] = c.Format
	}

	r.codecs[c.Format] = c
}

// Get returns the codec for a format tag.
func (r *Registry) Get(f Format) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[f]
	return c, ok
}

// Lookup resolves a tag or file suffix ("yml", ".XLSX") to its format.
func (r *Registry) Lookup(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.aliases[NormalizeFormat(name)]
	return f, ok
}

// All returns every codec sorted by tag.
func (r *Registry) All() []Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Codec, 0, len(r.codecs))
	for _, c := range r.codecs {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Format < result[j].Format
	})
	return result
}

// Count returns the number of registered formats.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codecs)
}

// Ingest decodes data as format f. It never returns a partial table.
func (r *Registry) Ingest(data []byte, f Format) (*Table, error) {
	c, ok := r.Get(f)
	if !ok || !c.CanRead() {
		return nil, stageError(StageIngest, f, fmt.Errorf("%w: cannot read %q", ErrUnsupportedFormat, f))
	}

	t, err := c.Decode(data)
	if err != nil {
		return nil, stageError(StageIngest, f, err)
	}
	if t == nil {
		t = NewTable()
	}
	return t, nil
}

// Output is a serialized table ready for download.
type Output struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Serialize writes t as format f. The output is buffered in full so a
// failing encoder never yields a truncated stream.
func (r *Registry) Serialize(t *Table, f Format) (*Output, error) {
	c, ok := r.Get(f)
	if !ok {
		return nil, stageError(StageSerialize, f, fmt.Errorf("%w: unknown target %q", ErrSerializationUnsupported, f))
	}
	if !c.CanWrite() {
		return nil, stageError(StageSerialize, f, fmt.Errorf("%w: no %s writer in this build", ErrSerializationUnsupported, c.Label))
	}

	var buf bytes.Buffer
	if err := c.Encode(&buf, t); err != nil {
		return nil, stageError(StageSerialize, f, err)
	}

	return &Output{
		FileName:    OutputFileName(f),
		ContentType: c.ContentType,
		Data:        buf.Bytes(),
	}, nil
}
