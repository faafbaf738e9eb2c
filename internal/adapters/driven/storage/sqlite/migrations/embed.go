// Package migrations holds the schema migration files applied on open.
package migrations

import "embed"

// FS exposes the numbered .sql files to the store.
//
//go:embed *.sql
var FS embed.FS
