package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is a single schema change. SQL holds an optional Down section
// followed by the Up section, each introduced by its sql-migrate marker.
type Migration struct {
	ID  string
	SQL string
}

// LoadMigrations reads every .sql file in dir of fsys, ordered by file name.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}

		migrations = append(migrations, Migration{ID: e.Name(), SQL: string(data)})
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return strings.Compare(a.ID, b.ID) })

	return migrations, nil
}

// RunMigrationsDB applies every pending migration in the up direction.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return RunMigrationsDBExtended(log, db, migrations, migrate.Up, 0)
}

// RunMigrationsDBExtended applies migrations in dir (migrate.Up or migrate.Down),
// at most maxMigrations of them; 0 means no limit.
func RunMigrationsDBExtended(
	log *logger.Logger,
	db *sql.DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int,
) error {
	source := &migrate.MemoryMigrationSource{}
	ids := make([]string, 0, len(migrations))

	for _, m := range migrations {
		down, up, found := strings.Cut(m.SQL, upMarker)
		if !found {
			return fmt.Errorf("migration %s missing '%s' separator", m.ID, upMarker)
		}

		if _, after, ok := strings.Cut(down, downMarker); ok {
			down = after
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(up)},
			Down: []string{strings.TrimSpace(down)},
		})
		ids = append(ids, m.ID)
	}

	n, err := migrate.ExecMax(db, "sqlite3", source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migrations [%s]: %w", strings.Join(ids, ", "), err)
	}

	log.Infof("successfully ran %d migrations from [%s]", n, strings.Join(ids, ", "))

	return nil
}
