package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-calendar/internal/model"
)

// ClaimKey — тройка, по которой уникален слот.
type ClaimKey struct {
	ProviderID string
	Date       string
	Time       string
}

type ClaimSet map[ClaimKey]struct{}

func (s ClaimSet) Has(providerID, date, hm string) bool {
	_, ok := s[ClaimKey{ProviderID: providerID, Date: date, Time: hm}]
	return ok
}

// SlotKey: (дата, время) без врача.
type SlotKey struct {
	Date string
	Time string
}

// UserSlotSet — слоты, уже занятые конкретным пользователем в отделении.
type UserSlotSet map[SlotKey]struct{}

func (s UserSlotSet) Has(date, hm string) bool {
	_, ok := s[SlotKey{Date: date, Time: hm}]
	return ok
}

type ClaimRepository interface {
	// Атомарно занять слот. ErrClaimConflict, если тройка уже занята.
	TryClaim(ctx context.Context, claim *model.SlotClaim) error
	// Освободить слот.
	Release(ctx context.Context, providerID, date, hm string) error
	// Все занятые тройки для врачей × дат одним запросом.
	BulkQuery(ctx context.Context, providerIDs, dates []string) (ClaimSet, error)
	// Слоты пользователя в отделении по датам одним запросом.
	BulkQueryForUser(ctx context.Context, userID, department string, dates []string) (UserSlotSet, error)
	// Проставить ссылку на бронь.
	AttachReservation(ctx context.Context, claimID, reservationID uuid.UUID) error
}

type GormClaimRepository struct {
	db *gorm.DB
}

func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// TryClaim вставляет строку в отдельной точке сохранения: если внешний код
// уже в транзакции, конфликт откатывает только эту вставку, а не всю транзакцию
// (PostgreSQL иначе помечает транзакцию как aborted).
func (r *GormClaimRepository) TryClaim(ctx context.Context, claim *model.SlotClaim) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(claim).Error
	})
	if isUniqueViolation(err) {
		return ErrClaimConflict
	}
	if err != nil {
		return fmt.Errorf("insert slot claim: %w", err)
	}
	return nil
}

func (r *GormClaimRepository) Release(ctx context.Context, providerID, date, hm string) error {
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date = ? AND time = ?", providerID, date, hm).
		Delete(&model.SlotClaim{}).
		Error
	if err != nil {
		return fmt.Errorf("delete slot claim: %w", err)
	}
	return nil
}

func (r *GormClaimRepository) BulkQuery(ctx context.Context, providerIDs, dates []string) (ClaimSet, error) {
	set := make(ClaimSet)
	if len(providerIDs) == 0 || len(dates) == 0 {
		return set, nil
	}

	var rows []model.SlotClaim
	err := r.db.WithContext(ctx).
		Select("provider_id", "date", "time").
		Where("provider_id IN ?", providerIDs).
		Where("date IN ?", dates).
		Find(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("query slot claims: %w", err)
	}

	for _, c := range rows {
		set[ClaimKey{ProviderID: c.ProviderID, Date: c.Date, Time: c.Time}] = struct{}{}
	}
	return set, nil
}

func (r *GormClaimRepository) BulkQueryForUser(
	ctx context.Context,
	userID, department string,
	dates []string,
) (UserSlotSet, error) {
	set := make(UserSlotSet)
	if userID == "" || len(dates) == 0 {
		return set, nil
	}

	var rows []model.SlotClaim
	err := r.db.WithContext(ctx).
		Select("date", "time").
		Where("user_id = ? AND department = ?", userID, department).
		Where("date IN ?", dates).
		Find(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("query user slot claims: %w", err)
	}

	for _, c := range rows {
		set[SlotKey{Date: c.Date, Time: c.Time}] = struct{}{}
	}
	return set, nil
}

func (r *GormClaimRepository) AttachReservation(ctx context.Context, claimID, reservationID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&model.SlotClaim{}).
		Where("id = ?", claimID).
		Update("reservation_id", reservationID).
		Error
	if err != nil {
		return fmt.Errorf("attach reservation to claim: %w", err)
	}
	return nil
}
