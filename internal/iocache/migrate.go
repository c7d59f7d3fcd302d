package iocache

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/repolens/schema"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// migrationsTable keeps golang-migrate bookkeeping apart from other tools sharing the database.
const migrationsTable = "repolens_schema_migrations"

// MigrationOutcome describes what a migration run changed.
type MigrationOutcome struct {
	FromVersion uint
	ToVersion   uint
	Changed     bool
}

func (o MigrationOutcome) String() string {
	if !o.Changed {
		return fmt.Sprintf("No migration needed. Database is already at version %d", o.ToVersion)
	}
	return fmt.Sprintf("Successfully migrated from version %d to version %d", o.FromVersion, o.ToVersion)
}

// MigrateStore runs database migrations for the analyses and embeddings tables.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to the specified version.
func MigrateStore(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationOutcome, error) {
	var outcome MigrationOutcome
	if backend == schema.NoneBackend {
		return outcome, fmt.Errorf("migrations are not supported for the none backend")
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return outcome, err
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		return outcome, errors.Wrapf(err, "failed to create %s migrate driver", backend)
	}

	backendFS, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return outcome, errors.Wrap(err, "failed to access migrations directory")
	}
	sourceDriver, err := iofs.New(backendFS, ".")
	if err != nil {
		return outcome, errors.Wrap(err, "failed to create migration source")
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return outcome, errors.Wrap(err, "failed to create migrate instance")
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return outcome, errors.Wrap(err, "failed to get current migration version")
	}
	if dirty {
		return outcome, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}
	outcome.FromVersion = currentVersion

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		outcome.ToVersion = currentVersion
		return outcome, nil
	}
	if err != nil {
		return outcome, errors.Wrapf(err, "failed to migrate (target %d)", targetVersion)
	}

	newVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return outcome, errors.Wrap(err, "failed to read migrated version")
	}
	outcome.ToVersion = newVersion
	outcome.Changed = true
	return outcome, nil
}
