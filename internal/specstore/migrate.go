package specstore

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Schema migrations for archives that outlive a single release. The base
// schema is applied by NewArchive; migrations evolve it in place.

// MigrateUp runs all pending migrations up to the latest version. Returns
// nil if the archive is already at the latest version.
func (a *Archive) MigrateUp(migrationsDir string) error {
	m, err := a.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	// m is not closed here: closing it would close the shared DB handle.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("specstore: migration up failed: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (a *Archive) MigrateDown(migrationsDir string) error {
	m, err := a.newMigrate(migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("specstore: migration down failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state;
// (0, false, nil) when no migrations have been applied yet.
func (a *Archive) MigrateVersion(migrationsDir string) (version uint, dirty bool, err error) {
	m, err := a.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (a *Archive) newMigrate(migrationsDir string) (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("specstore: resolve migrations dir: %w", err)
	}

	driver, err := sqlite.WithInstance(a.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("specstore: create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", absPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("specstore: create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger adapts the migrate.Logger interface onto the stdlib logger.
type migrateLogger struct{}

func (*migrateLogger) Printf(format string, v ...any) {
	log.Printf("[Archive:migrate] "+format, v...)
}

func (*migrateLogger) Verbose() bool { return false }
