// Package migrations embeds the SQL migrations for the agent's local cache.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
