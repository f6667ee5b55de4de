// Package repositories implements the durable local storage used by the watchwave stores.
//
// Key Implementations:
//   - [SQLiteStore] : synchronous, process-local key-value store backed by the kv table
//   - [MemoryStore] : map-backed [KVStore] for tests and session-only persistence
//   - [CatalogCache] : last successful catalog page per request, served when the catalog is unreachable
//
// Values are opaque bytes; the stores above decide their own encoding (JSON snapshots of collections, raw credential strings).
package repositories
