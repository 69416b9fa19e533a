package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

// Provider — врач. Идентификатор стабильный и человекочитаемый (doc_cardiology_01).
// Меняется только административно (сидирование).
type Provider struct {
	ID string `gorm:"type:varchar(50);primaryKey"`

	Name       string `gorm:"type:varchar(255);not null"`
	Department string `gorm:"type:varchar(100);not null;index"`

	// Недельный шаблон: {"mon":["09:00",...],...,"sun":[]}.
	Schedules datatypes.JSONType[schedule.Weekly] `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Weekly возвращает шаблон расписания; пустой шаблон вместо nil.
func (p *Provider) Weekly() schedule.Weekly {
	w := p.Schedules.Data()
	if w == nil {
		return schedule.Weekly{}
	}
	return w
}
