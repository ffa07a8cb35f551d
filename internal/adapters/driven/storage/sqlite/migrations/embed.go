// Package migrations embeds the lectern.db schema. sqlite.NewStore applies
// the NNN_*.up.sql files in name order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
