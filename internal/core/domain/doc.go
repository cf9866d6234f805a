// Package domain holds the entities qplens reasons about: session chunks,
// recurring questions, uploaded papers, generated answers and the settings
// that tune matching. It imports only the standard library; every other
// package depends on it.
package domain
