package calendar

import (
	"errors"
	"time"
)

// Форматы даты и времени, общие с фронтендом.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var ErrInvalidDate = errors.New("invalid date")

// Clock — источник "сегодня" и "сейчас" в одной фиксированной таймзоне клиники.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock возвращает часы поверх системного времени.
func NewClock(loc *time.Location) *Clock {
	return NewClockFunc(loc, time.Now)
}

// NewClockFunc позволяет подменить источник времени (тесты, сидирование).
func NewClockFunc(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today — текущая дата в формате YYYY-MM-DD.
func (c *Clock) Today() string { return c.Now().Format(DateLayout) }

// NowHM — текущее время суток в формате ЧЧ:ММ.
func (c *Clock) NowHM() string { return c.Now().Format(TimeLayout) }

// ParseDate строго разбирает YYYY-MM-DD; несуществующие даты (2026-02-30) отвергаются.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, c.loc)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// IsWeekend: суббота или воскресенье.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsPastDate сравнивает даты в формате YYYY-MM-DD: строка сортируется так же, как дата.
func (c *Clock) IsPastDate(date string) bool {
	return date < c.Today()
}

// IsPastTime: слот сегодняшнего дня, время которого уже наступило.
func (c *Clock) IsPastTime(date, hm string) bool {
	return date == c.Today() && hm <= c.NowHM()
}
