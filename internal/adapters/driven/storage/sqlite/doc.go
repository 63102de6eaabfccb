// Package sqlite stores the passage records of one index store generation.
//
// Each generation directory holds a passages.db beside the vector index
// file. Row order (the position column) is the index order: position i
// describes the vector at position i of the search structure. The
// database also carries the ingestion manifest (sources) and generation
// metadata such as embedding dimensions and passage count.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, through github.com/jmoiron/sqlx for struct scanning.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// A Store is written once by the ingesting process and then only read.
// Reads are safe for concurrent use.
package sqlite
