package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slot_claims — занятые тройки (врач, дата, время).
// Уникальный индекс по тройке: единственная точка защиты от двойной записи к врачу.
type SlotClaim struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID string `gorm:"type:varchar(50);not null;uniqueIndex:uq_slot_claims_provider_date_time,priority:1"`
	Date       string `gorm:"type:varchar(10);not null;uniqueIndex:uq_slot_claims_provider_date_time,priority:2;index:idx_slot_claims_user_department_date,priority:3"`
	Time       string `gorm:"type:varchar(5);not null;uniqueIndex:uq_slot_claims_provider_date_time,priority:3"`

	Department string `gorm:"type:varchar(100);not null;index:idx_slot_claims_user_department_date,priority:2"`
	UserID     string `gorm:"type:varchar(255);not null;index:idx_slot_claims_user_department_date,priority:1"`

	// Заполняется после вставки брони в той же транзакции.
	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *SlotClaim) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
