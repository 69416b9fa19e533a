// Package dbtest открывает мигрированную SQLite-базу для тестов пакетов с хранилищем.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/Leganyst/clinic-calendar/internal/config"
	"github.com/Leganyst/clinic-calendar/internal/db"
	"github.com/Leganyst/clinic-calendar/internal/model"
)

// Open создаёт пустую базу во временном каталоге теста.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "calendar.db"),
	}
	gdb, err := db.NewGormDB(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
