// Package migrations embebe el esquema SQL para PostgreSQL.
package migrations

import "embed"

//go:embed sql/*.sql
var FS embed.FS

// Dir es el directorio dentro de FS con los archivos {version}_{name}.sql.
const Dir = "sql"
