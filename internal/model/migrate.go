package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей календарного ядра.
// В PostgreSQL схема ведётся SQL-миграциями (db.MigrateUp), AutoMigrate нужен для SQLite и тестов.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Provider{},
		&SlotClaim{},
		&Reservation{},
		&Event{},
	)
}
