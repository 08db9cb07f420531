// Package source locates and opens raw feed files for the core service.
//
// Three implementations cover the ways terminals publish their exports:
//
//   - Dir: a directory tree laid out as <root>/<feed>/<YYYY-MM-DD>.csv
//   - HTTP: the same layout under a base URL
//   - Indexed: a lookup table (usually Postgres) mapping feed and date to a
//     ref, opened as a URL or a local path
//
// All of them report a missing file with an error wrapping core.ErrFeedNotFound.
package source
