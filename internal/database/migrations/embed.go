// Package migrations embeds the SQL schema changes applied after AutoMigrate.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
