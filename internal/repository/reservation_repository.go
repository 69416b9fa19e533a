package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-calendar/internal/model"
)

type ReservationRepository interface {
	// Создать бронь. ErrDuplicateReservation при нарушении уникальности.
	Create(ctx context.Context, r *model.Reservation) error
	// Бронь по ID, только если она принадлежит пользователю.
	GetForUser(ctx context.Context, id uuid.UUID, userID string) (*model.Reservation, error)
	// Есть ли у пользователя бронь на (отделение, дата, время); бронь exclude не учитывается.
	ExistsForUserSlot(ctx context.Context, userID, department, date, hm string, exclude *uuid.UUID) (bool, error)
	// Обновить врача, отделение, дату, время и цель.
	Update(ctx context.Context, r *model.Reservation) error
	// Удалить бронь.
	Delete(ctx context.Context, id uuid.UUID) error
	// Брони пользователя по дате и времени.
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	err := r.db.WithContext(ctx).Create(res).Error
	if isUniqueViolation(err) {
		return ErrDuplicateReservation
	}
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *GormReservationRepository) GetForUser(ctx context.Context, id uuid.UUID, userID string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

func (r *GormReservationRepository) ExistsForUserSlot(
	ctx context.Context,
	userID, department, date, hm string,
	exclude *uuid.UUID,
) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("user_id = ? AND department = ? AND date = ? AND time = ?", userID, department, date, hm)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("count reservations: %w", err)
	}
	return count > 0, nil
}

func (r *GormReservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	err := r.db.WithContext(ctx).
		Model(res).
		Select("provider_id", "department", "date", "time", "purpose", "updated_at").
		Updates(res).
		Error
	if isUniqueViolation(err) {
		return ErrDuplicateReservation
	}
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Reservation{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

func (r *GormReservationRepository) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Order("time ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}
