// Package migrations embeds the SQL migrations for the profile service.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
