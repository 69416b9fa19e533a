package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPurposeLength — ограничение на цель визита, в символах.
const MaxPurposeLength = 100

// reservations
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID     string `gorm:"type:varchar(255);not null;uniqueIndex:uq_reservations_user_slot,priority:1"`
	ProviderID string `gorm:"type:varchar(50);not null;index"`
	Department string `gorm:"type:varchar(100);not null;uniqueIndex:uq_reservations_user_slot,priority:2"`
	Date       string `gorm:"type:varchar(10);not null;uniqueIndex:uq_reservations_user_slot,priority:3"`
	Time       string `gorm:"type:varchar(5);not null;uniqueIndex:uq_reservations_user_slot,priority:4"`

	Purpose string `gorm:"type:varchar(100)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
