package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/viajesoeste/apiserver/config"
)

// MigrationsURL is the golang-migrate source URL for dir.
func MigrationsURL(dir string) string {
	return "file://" + filepath.ToSlash(dir)
}

// Migrate moves the schema by steps migrations from cfg.MigrationsDir. Zero
// applies every pending migration and negative values roll back. Being
// already up to date is not an error. It returns the resulting version, zero
// when no migration is applied.
func Migrate(cfg config.DatabaseConfig, steps int) (uint, error) {
	migrator, err := migrate.New(MigrationsURL(cfg.MigrationsDir), DSN(cfg))
	if err != nil {
		return 0, fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if steps == 0 {
		err = migrator.Up()
	} else {
		err = migrator.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate: %w", err)
	}

	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
