// Package migration wraps golang-migrate for schema management of the
// clinic database, driven by the SQL pairs under migrations/.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies and rolls back schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New builds a Migrator over an open postgres connection and a directory of
// .up.sql/.down.sql pairs.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// run executes a migrate call, treating ErrNoChange as success.
func (mg *Migrator) run(what string, fn func() error) (changed bool, err error) {
	mg.logger.Info("Running migrations", zap.String("op", what))

	err = fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("No migrations to apply", zap.String("op", what))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("migration %s failed: %w", what, err)
	}
	return true, nil
}

// logVersion reports the schema version after a change.
func (mg *Migrator) logVersion() {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		mg.logger.Warn("Failed to read migration version", zap.Error(err))
		return
	}
	mg.logger.Info("Migrations completed",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}

// Up applies all pending migrations.
func (mg *Migrator) Up() error {
	changed, err := mg.run("up", mg.m.Up)
	if err != nil {
		return err
	}
	if changed {
		mg.logVersion()
	}
	return nil
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	changed, err := mg.run("down", mg.m.Down)
	if err != nil {
		return err
	}
	if changed {
		mg.logger.Info("All migrations rolled back")
	}
	return nil
}

// Steps applies n migrations; negative n rolls back.
func (mg *Migrator) Steps(n int) error {
	changed, err := mg.run(fmt.Sprintf("steps(%d)", n), func() error { return mg.m.Steps(n) })
	if err != nil {
		return err
	}
	if changed {
		mg.logVersion()
	}
	return nil
}

// GoTo migrates up or down until the schema is at the given version.
func (mg *Migrator) GoTo(version uint) error {
	changed, err := mg.run(fmt.Sprintf("goto(%d)", version), func() error { return mg.m.Migrate(version) })
	if err != nil {
		return err
	}
	if changed {
		mg.logger.Info("Migration to version completed", zap.Uint("version", version))
	}
	return nil
}

// Version returns the current schema version. A fresh database reports
// version 0 with no error.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running migrations. Only for
// recovering a dirty schema state.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, data included.
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping database objects")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
