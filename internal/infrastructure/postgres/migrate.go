package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Migrator applies db/migrations through golang-migrate over a pgx stdlib connection.
type Migrator struct {
	db     *sql.DB
	m      *migrate.Migrate
	logger *logrus.Logger
}

func NewMigrator(dsn, migrationsDir string, logger *logrus.Logger) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Migrator{db: db, m: m, logger: logger}, nil
}

func (mg *Migrator) Close() {
	_, _ = mg.m.Close()
	_ = mg.db.Close()
}

// Up applies all pending migrations; having nothing to apply is not an error.
func (mg *Migrator) Up() error {
	mg.logger.Info("running migrations...")
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("no migrations to run")
		return nil
	}
	return err
}

// Down rolls back steps migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}
	err := mg.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// RunMigrations is the one-shot form used at server start.
func RunMigrations(dsn, migrationsDir string, logger *logrus.Logger) error {
	mg, err := NewMigrator(dsn, migrationsDir, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
