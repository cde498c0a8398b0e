// Package migrations embeds the versioned PostgreSQL schema.
//
// Files are named NNNNNN_name.up.sql / NNNNNN_name.down.sql and are applied in
// lexical order by database.MigrateUp.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
