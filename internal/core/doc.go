// Package core provides the business logic for sweeping tabular data.
//
// A sweep takes an uploaded file, reads it into a [Table], cleans the table
// and writes it back out, either in the source format or in a chosen target
// format. The package has no knowledge of HTTP or the command line; the web
// server, the CLI and tests drive it the same way.
//
// # Pipeline
//
//  1. Detect: [Registry.FormatFromFileName] maps the file suffix to a [Format]
//  2. Ingest: [Registry.Ingest] decodes the bytes with the format's [Codec]
//  3. Normalize: [Normalize] drops duplicate and incomplete rows and
//     sanitizes text cells
//  4. Serialize: [Registry.Serialize] encodes the cleaned table as
//     "cleaned_data.<ext>"
//
// [Service.Sweep] runs all four stages under a [SweepLimiter] slot and
// records the outcome through an optional [Recorder].
//
// # Codec Registry
//
// Codecs are registered at init time by the formats package:
//
//	import _ "github.com/JonMunkholm/sweeper/internal/core/formats"
//
// A codec may leave Decode or Encode nil when the format is write-only or
// read-only in this build. Serializing to a format without an encoder fails
// with [ErrSerializationUnsupported].
//
// # Error Handling
//
// Every stage failure is a [*SweepError] wrapping one of the taxonomy
// sentinels: [ErrUnsupportedFormat], [ErrDecodeFailure], [ErrMalformedInput]
// or [ErrSerializationUnsupported]. Technical errors are mapped to
// user-friendly messages using [MapError]:
//
//   - FMT001-FMT002: Format errors (unsupported input, unavailable output)
//   - FILE001-FILE004: File errors (size, malformed content, encoding)
//   - UPL002-UPL005: Sweep errors (busy, cancelled, timeout)
package core
