// Package sqlite stores courses and both vector collections in a single
// pure-Go SQLite file (modernc.org/sqlite), by default
// ~/.lectern/data/lectern.db.
//
// Vectors are little-endian float32 blobs, ranked in process by a full
// cosine-similarity scan. The schema lives in
// migrations/ and the database runs in WAL mode so the watcher can ingest
// while the CLI or MCP server reads.
package sqlite
