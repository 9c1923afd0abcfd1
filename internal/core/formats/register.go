// Package formats registers one codec per supported file format with the
// core registry.
//
// Import for side effects:
//
//	import _ "github.com/JonMunkholm/sweeper/internal/core/formats"
//
// After that, core.DefaultRegistry() can ingest and serialize csv, xlsx,
// txt, json, yaml, docx, pdf and parquet.
package formats

import "github.com/JonMunkholm/sweeper/internal/core"

func init() {
	RegisterAll(core.DefaultRegistry())
}

// RegisterAll adds every codec to r. Panics if r already holds one of them.
func RegisterAll(r *core.Registry) {
	r.Register(CSV())
	r.Register(XLSX())
	r.Register(Text())
	r.Register(JSON())
	r.Register(YAML())
	r.Register(DOCX())
	r.Register(PDF())
	r.Register(Parquet())
}
