package migrations

import (
	"database/sql"
	"embed"

	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
)

//go:embed sql/*.sql
var files embed.FS

// RunMigrations creates the aggregate and event record tables of a staking indexer.
func RunMigrations(log *logger.Logger, database *sql.DB) error {
	migrations, err := db.LoadMigrations(files, "sql")
	if err != nil {
		return err
	}

	return db.RunMigrationsDB(log, database, migrations)
}
