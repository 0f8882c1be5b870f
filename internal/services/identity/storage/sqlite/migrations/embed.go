// Package migrations embeds identity schema migrations.
package migrations

import "embed"

// FS bundles the SQL migration files applied at store open.
//
//go:embed *.sql
var FS embed.FS
