// Package sqlite persists chunks, questions and papers in one SQLite file
// (~/.qplens/data/qplens.db by default) through the pure Go
// modernc.org/sqlite driver.
//
// The schema lives in versioned migrations under migrations/. The database
// runs in WAL mode; question occurrence updates are conditional on the
// stored revision, so concurrent uploads cannot lose an increment.
package sqlite
