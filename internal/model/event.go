package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeReservationCreated   EventType = "reservation_created"
	EventTypeReservationUpdated   EventType = "reservation_updated"
	EventTypeReservationCancelled EventType = "reservation_cancelled"
)

// события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	UserID        string     `gorm:"type:varchar(255);index"`
	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSONMap
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
