// Package availability считает доступность слотов отделения по датам.
// Только чтение: врачи одним запросом, занятые слоты одним запросом,
// слоты пользователя одним запросом.
package availability

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Leganyst/clinic-calendar/internal/calendar"
	"github.com/Leganyst/clinic-calendar/internal/holiday"
	"github.com/Leganyst/clinic-calendar/internal/metrics"
	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

var tracer = otel.Tracer("clinic-calendar/availability")

// Причина, по которой день закрыт целиком.
type Reason string

const (
	ReasonPast    Reason = "past"
	ReasonWeekend Reason = "weekend"
	ReasonHoliday Reason = "holiday"
	ReasonClosed  Reason = "closed"
)

type Slot struct {
	Time       string `json:"time"`
	Reservable bool   `json:"reservable"`
}

// DateAvailability — доступность одного дня. Reason == nil для рассчитанных дней.
type DateAvailability struct {
	Date       string  `json:"date"`
	IsHoliday  bool    `json:"is_holiday"`
	IsWeekend  *bool   `json:"is_weekend,omitempty"`
	Reservable bool    `json:"reservable"`
	Reason     *Reason `json:"reason"`
	Slots      []Slot  `json:"slots"`
}

type ProviderSource interface {
	ListByDepartment(ctx context.Context, department string) ([]model.Provider, error)
}

type ClaimSource interface {
	BulkQuery(ctx context.Context, providerIDs, dates []string) (repository.ClaimSet, error)
	BulkQueryForUser(ctx context.Context, userID, department string, dates []string) (repository.UserSlotSet, error)
}

type Engine struct {
	providers ProviderSource
	claims    ClaimSource
	clock     *calendar.Clock
	metrics   *metrics.CalendarMetrics
}

func NewEngine(providers ProviderSource, claims ClaimSource, clock *calendar.Clock, m *metrics.CalendarMetrics) *Engine {
	return &Engine{providers: providers, claims: claims, clock: clock, metrics: m}
}

// ForDates возвращает доступность по каждой дате в порядке запроса.
// userID может быть пустым: тогда собственные брони пользователя не учитываются.
func (e *Engine) ForDates(ctx context.Context, department string, dates []string, userID string) ([]DateAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.for_dates")
	defer span.End()
	span.SetAttributes(
		attribute.String("department", department),
		attribute.Int("dates", len(dates)),
	)

	started := time.Now()
	defer func() { e.metrics.ObserveAvailabilityLatency(time.Since(started).Seconds()) }()

	results := make(map[string]DateAvailability, len(dates))
	var toCompute []string

	// закрытые дни решаются без обращения к хранилищу
	for _, date := range dates {
		if _, seen := results[date]; seen || slices.Contains(toCompute, date) {
			continue
		}
		if res, closed := e.closedDay(date); closed {
			results[date] = res
			e.metrics.ObserveAvailabilityDate(string(*res.Reason))
			continue
		}
		toCompute = append(toCompute, date)
	}

	if len(toCompute) > 0 {
		computed, err := e.compute(ctx, department, toCompute, userID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		for _, res := range computed {
			results[res.Date] = res
			e.metrics.ObserveAvailabilityDate("")
		}
	}

	out := make([]DateAvailability, 0, len(dates))
	for _, date := range dates {
		out = append(out, results[date])
	}
	return out, nil
}

// ForDate считает один день.
func (e *Engine) ForDate(ctx context.Context, department, date, userID string) (DateAvailability, error) {
	list, err := e.ForDates(ctx, department, []string{date}, userID)
	if err != nil {
		return DateAvailability{}, err
	}
	return list[0], nil
}

// AvailableProviders — врачи отделения, работающие в слот и не занятые в нём.
// Порядок совпадает с порядком врачей отделения, это порядок попыток автоназначения.
func (e *Engine) AvailableProviders(ctx context.Context, department, date, hm string) ([]model.Provider, error) {
	ctx, span := tracer.Start(ctx, "availability.available_providers")
	defer span.End()

	day, err := e.clock.ParseDate(date)
	if err != nil {
		return nil, err
	}

	providers, err := e.providers.ListByDepartment(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	if len(providers) == 0 {
		return nil, nil
	}

	claimed, err := e.claims.BulkQuery(ctx, providerIDs(providers), []string{date})
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}

	var out []model.Provider
	for _, p := range providers {
		if p.Weekly().IsWorking(day, hm) && !claimed.Has(p.ID, date, hm) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (e *Engine) closedDay(date string) (DateAvailability, bool) {
	day, err := e.clock.ParseDate(date)
	if err != nil {
		return closed(date, false, nil, ReasonClosed), true
	}

	weekend := calendar.IsWeekend(day)
	isHoliday := holiday.IsHoliday(day)

	switch {
	case e.clock.IsPastDate(date):
		return closed(date, isHoliday, &weekend, ReasonPast), true
	case weekend:
		return closed(date, isHoliday, &weekend, ReasonWeekend), true
	case isHoliday:
		return closed(date, isHoliday, &weekend, ReasonHoliday), true
	}
	return DateAvailability{}, false
}

func (e *Engine) compute(ctx context.Context, department string, dates []string, userID string) ([]DateAvailability, error) {
	providers, err := e.providers.ListByDepartment(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	out := make([]DateAvailability, 0, len(dates))
	if len(providers) == 0 {
		// без врачей результат пустой, но не ошибка
		for _, date := range dates {
			out = append(out, DateAvailability{
				Date:      date,
				IsWeekend: boolPtr(false),
				Slots:     emptySlots(),
			})
		}
		return out, nil
	}

	claimed, err := e.claims.BulkQuery(ctx, providerIDs(providers), dates)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}

	mine := repository.UserSlotSet{}
	if userID != "" {
		mine, err = e.claims.BulkQueryForUser(ctx, userID, department, dates)
		if err != nil {
			return nil, fmt.Errorf("load user claims: %w", err)
		}
	}

	weeklies := make([]schedule.Weekly, len(providers))
	for i := range providers {
		weeklies[i] = providers[i].Weekly()
	}

	for _, date := range dates {
		day, _ := e.clock.ParseDate(date)
		key := schedule.WeekdayKey(day)

		working := make([]map[string]struct{}, len(weeklies))
		for i, w := range weeklies {
			working[i] = w.Set(key)
		}

		res := DateAvailability{
			Date:      date,
			IsWeekend: boolPtr(false),
			Slots:     make([]Slot, 0, len(schedule.Grid)),
		}
		for _, hm := range schedule.Grid {
			ok := false
			switch {
			case e.clock.IsPastTime(date, hm):
			case mine.Has(date, hm):
			default:
				for i, p := range providers {
					if _, works := working[i][hm]; works && !claimed.Has(p.ID, date, hm) {
						ok = true
						break
					}
				}
			}
			res.Slots = append(res.Slots, Slot{Time: hm, Reservable: ok})
			res.Reservable = res.Reservable || ok
		}
		out = append(out, res)
	}
	return out, nil
}

func closed(date string, isHoliday bool, weekend *bool, reason Reason) DateAvailability {
	return DateAvailability{
		Date:      date,
		IsHoliday: isHoliday,
		IsWeekend: weekend,
		Reason:    &reason,
		Slots:     emptySlots(),
	}
}

func emptySlots() []Slot {
	slots := make([]Slot, len(schedule.Grid))
	for i, hm := range schedule.Grid {
		slots[i] = Slot{Time: hm}
	}
	return slots
}

func providerIDs(providers []model.Provider) []string {
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}

func boolPtr(b bool) *bool { return &b }
