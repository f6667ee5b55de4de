// Package tasks runs bulk collection operations with real-time progress reporting.
//
// # Import
//
// [ImportWatchlist] resolves catalog references ("movie:603", "tv:1399", or a bare id for a movie),
// skips titles already tracked, and fetches the rest through a worker pool. Workers only talk to the
// catalog; fetched titles are applied to the [collection.Store] on the calling goroutine once the pool
// drains, so the store keeps a single writer.
//
// # Export
//
// [ExportLibrary] writes the watchlist and the library with the formatter package (json, csv, markdown
// or txt) and records the run in export_manifest.json.
//
// # Progress Reporting
//
// Both operations send [ProgressUpdate] values over an optional channel. Sends use select with default,
// so a slow or absent reader never blocks the work.
package tasks
