// Package migrations embeds the SQL schema of the run store.
package migrations

import "embed"

// FS contains the migration files, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
