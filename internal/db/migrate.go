package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-calendar/internal/config"
	"github.com/Leganyst/clinic-calendar/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp накатывает SQL-миграции на PostgreSQL.
// Возвращает итоговую версию схемы.
func MigrateUp(cfg *config.DBConfig) (uint, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return 0, fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	if err := sqlDB.Ping(); err != nil {
		return 0, fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("db driver: %w", err)
	}

	srcDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate up: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("migrate version: %w", err)
	}
	return version, nil
}

// Prepare приводит схему в рабочее состояние для выбранного драйвера:
// SQLite мигрируется через AutoMigrate, PostgreSQL SQL-миграциями.
func Prepare(cfg *config.DBConfig, gdb *gorm.DB) error {
	if cfg.Driver == config.DriverSQLite {
		return model.AutoMigrate(gdb)
	}
	_, err := MigrateUp(cfg)
	return err
}
