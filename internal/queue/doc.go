// Package queue persists translation chunks in SQLite so an interrupted run
// can resume where it stopped.
//
// The Store owns three tables: chunks (source segments with a pending/done
// flag), translated_chunks (results in arrival order), and batches (one row
// per source document, used to tell a fresh start from a resume). Completing
// a chunk writes its translation and flips its flag in a single transaction;
// a crash between the two steps is not possible.
//
// The database is transient working state. Reset clears every table once the
// output document has been written. Schema changes bump the version in
// schema.go; users delete the database to adopt the new schema.
package queue
