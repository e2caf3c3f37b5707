// Package migrations embebe el esquema SQL para SQLite (dev y tests).
package migrations

import "embed"

//go:embed sql/*.sql
var FS embed.FS

const Dir = "sql"
