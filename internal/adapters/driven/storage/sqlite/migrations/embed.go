// Package migrations carries the SQLite schema as numbered up/down scripts.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
