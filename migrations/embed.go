// Package migrations compiles the SQL migration files into the binary,
// so a deployed Farm Core needs no schema files on disk.
package migrations

import (
	"embed"

	"github.com/smartfarm/farmcore/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	// The embedded FS roots at this directory.
	database.MigrationsDir = "."
}
