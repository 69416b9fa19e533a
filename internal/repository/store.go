package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store — набор репозиториев поверх одного *gorm.DB: пула или открытой транзакции.
type Store struct {
	db *gorm.DB

	Providers    ProviderRepository
	Claims       ClaimRepository
	Reservations ReservationRepository
	Events       EventRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Providers:    NewGormProviderRepository(db),
		Claims:       NewGormClaimRepository(db),
		Reservations: NewGormReservationRepository(db),
		Events:       NewGormEventRepository(db),
	}
}

// InTx выполняет fn в одной транзакции; ошибка fn откатывает всё.
// Репозитории, переданные в fn, работают поверх транзакции.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
