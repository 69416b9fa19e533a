package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrClaimConflict — тройка (врач, дата, время) уже занята.
	ErrClaimConflict = errors.New("slot already claimed")
	// ErrDuplicateReservation — у пользователя уже есть бронь на (отделение, дата, время).
	ErrDuplicateReservation = errors.New("duplicate reservation")
	ErrNotFound             = errors.New("not found")
)

// SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation распознаёт нарушение уникального индекса по типу ошибки.
// Основной путь: gorm.ErrDuplicatedKey (TranslateError). Запасной: код PostgreSQL 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
