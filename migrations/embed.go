// Package migrations embeds the SQL migration files and applies them at
// startup, so the service never depends on a filesystem path in production.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
