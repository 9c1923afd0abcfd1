//go:build nopdf

package formats

import "github.com/JonMunkholm/sweeper/internal/core"

// Built without a PDF writer.
var pdfEncoder core.EncodeFunc
