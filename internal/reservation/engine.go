// Package reservation — запись к врачу: создание, перенос и отмена брони
// с автоназначением врача и переходом к следующему кандидату при гонке.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-calendar/internal/calendar"
	"github.com/Leganyst/clinic-calendar/internal/holiday"
	"github.com/Leganyst/clinic-calendar/internal/metrics"
	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

var tracer = otel.Tracer("clinic-calendar/reservation")

// MaxDepartmentLength — ограничение на название отделения, в символах.
const MaxDepartmentLength = 100

// CandidateSource отдаёт врачей, которых можно назначить на слот, в порядке попыток.
type CandidateSource interface {
	AvailableProviders(ctx context.Context, department, date, hm string) ([]model.Provider, error)
}

// Transactor открывает транзакцию поверх хранилища.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *repository.Store) error) error
}

type CreateInput struct {
	UserID     string
	Department string
	Date       string
	Time       string
	Purpose    string
}

type UpdateInput struct {
	ID         uuid.UUID
	UserID     string
	Department string
	Date       string
	Time       string
	Purpose    string
}

type CancelResult struct {
	OK bool      `json:"ok"`
	ID uuid.UUID `json:"id"`
}

// Entry — бронь с именем назначенного врача.
type Entry struct {
	model.Reservation
	DoctorName string
}

type Engine struct {
	tx           Transactor
	reservations repository.ReservationRepository
	providers    repository.ProviderRepository
	candidates   CandidateSource
	clock        *calendar.Clock
	logger       zerolog.Logger
	metrics      *metrics.CalendarMetrics
}

func NewEngine(
	store *repository.Store,
	candidates CandidateSource,
	clock *calendar.Clock,
	logger zerolog.Logger,
	m *metrics.CalendarMetrics,
) *Engine {
	return &Engine{
		tx:           store,
		reservations: store.Reservations,
		providers:    store.Providers,
		candidates:   candidates,
		clock:        clock,
		logger:       logger.With().Str("component", "reservation").Logger(),
		metrics:      m,
	}
}

// Create проверяет запрос и в одной транзакции занимает слот у первого
// свободного кандидата, пишет бронь и связывает её со слотом.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Entry, error) {
	ctx, span := tracer.Start(ctx, "reservation.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("department", in.Department),
		attribute.String("date", in.Date),
		attribute.String("time", in.Time),
	)

	res, err := e.create(ctx, in)
	e.observe("create", err)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

func (e *Engine) create(ctx context.Context, in CreateInput) (*Entry, error) {
	in.Department, in.Date, in.Time = trimSlot(in.Department, in.Date, in.Time)

	userID, err := validateShape(in.UserID, in.Department, in.Time, in.Purpose)
	if err != nil {
		return nil, err
	}
	if err := e.validateTarget(ctx, userID, in.Department, in.Date, in.Time, nil); err != nil {
		return nil, err
	}

	candidates, err := e.candidates.AvailableProviders(ctx, in.Department, in.Date, in.Time)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	var (
		res      *model.Reservation
		assigned *model.Provider
	)
	err = e.tx.InTx(ctx, func(tx *repository.Store) error {
		claim, provider, err := e.acquire(ctx, tx, candidates, userID, in.Department, in.Date, in.Time)
		if err != nil {
			return err
		}

		assigned = provider
		res = &model.Reservation{
			UserID:     userID,
			ProviderID: claim.ProviderID,
			Department: in.Department,
			Date:       in.Date,
			Time:       in.Time,
			Purpose:    in.Purpose,
		}
		if err := tx.Reservations.Create(ctx, res); err != nil {
			return translateStoreError(err)
		}
		if err := tx.Claims.AttachReservation(ctx, claim.ID, res.ID); err != nil {
			return err
		}
		return tx.Events.Create(ctx, newEvent(model.EventTypeReservationCreated, res, nil))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("provider_id", res.ProviderID).
		Str("date", res.Date).
		Str("time", res.Time).
		Msg("reservation created")
	return &Entry{Reservation: *res, DoctorName: assigned.Name}, nil
}

// Update переносит бронь или меняет цель визита. Идентификатор брони сохраняется.
// Новый слот занимается до освобождения старого: при неудаче старый остаётся за пользователем.
func (e *Engine) Update(ctx context.Context, in UpdateInput) (*Entry, error) {
	ctx, span := tracer.Start(ctx, "reservation.update")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", in.ID.String()))

	res, err := e.update(ctx, in)
	e.observe("update", err)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

func (e *Engine) update(ctx context.Context, in UpdateInput) (*Entry, error) {
	in.Department, in.Date, in.Time = trimSlot(in.Department, in.Date, in.Time)

	userID, err := validateShape(in.UserID, in.Department, in.Time, in.Purpose)
	if err != nil {
		return nil, err
	}

	current, err := e.lookup(ctx, in.ID, userID)
	if err != nil {
		return nil, err
	}

	slotChanged := current.Department != in.Department || current.Date != in.Date || current.Time != in.Time
	if !slotChanged && current.Purpose == in.Purpose {
		return e.withDoctorName(ctx, current)
	}

	if err := e.validateTarget(ctx, userID, in.Department, in.Date, in.Time, &current.ID); err != nil {
		return nil, err
	}

	previous := *current
	updated := *current
	updated.Department = in.Department
	updated.Date = in.Date
	updated.Time = in.Time
	updated.Purpose = in.Purpose

	var (
		candidates []model.Provider
		assigned   *model.Provider
	)
	if slotChanged {
		candidates, err = e.candidates.AvailableProviders(ctx, in.Department, in.Date, in.Time)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
	}

	err = e.tx.InTx(ctx, func(tx *repository.Store) error {
		var claim *model.SlotClaim
		if slotChanged {
			acquired, provider, err := e.acquire(ctx, tx, candidates, userID, in.Department, in.Date, in.Time)
			if err != nil {
				return err
			}
			claim, assigned = acquired, provider
			if err := tx.Claims.Release(ctx, previous.ProviderID, previous.Date, previous.Time); err != nil {
				return err
			}
			updated.ProviderID = claim.ProviderID
		}

		if err := tx.Reservations.Update(ctx, &updated); err != nil {
			return translateStoreError(err)
		}
		if claim != nil {
			if err := tx.Claims.AttachReservation(ctx, claim.ID, updated.ID); err != nil {
				return err
			}
		}
		return tx.Events.Create(ctx, newEvent(model.EventTypeReservationUpdated, &updated, &previous))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("reservation_id", updated.ID.String()).
		Str("provider_id", updated.ProviderID).
		Bool("rescheduled", slotChanged).
		Msg("reservation updated")
	if assigned == nil {
		return e.withDoctorName(ctx, &updated)
	}
	return &Entry{Reservation: updated, DoctorName: assigned.Name}, nil
}

// withDoctorName дополняет бронь именем врача. Удалённый из справочника врач даёт пустое имя.
func (e *Engine) withDoctorName(ctx context.Context, res *model.Reservation) (*Entry, error) {
	p, err := e.providers.GetByID(ctx, res.ProviderID)
	if errors.Is(err, repository.ErrNotFound) {
		return &Entry{Reservation: *res}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Entry{Reservation: *res, DoctorName: p.Name}, nil
}

// Cancel освобождает слот и удаляет бронь. Чужая бронь неотличима от отсутствующей.
func (e *Engine) Cancel(ctx context.Context, userID string, id uuid.UUID) (*CancelResult, error) {
	ctx, span := tracer.Start(ctx, "reservation.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("reservation_id", id.String()))

	res, err := e.cancel(ctx, userID, id)
	e.observe("cancel", err)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

func (e *Engine) cancel(ctx context.Context, rawUserID string, id uuid.UUID) (*CancelResult, error) {
	userID, err := calendar.ValidateUserID(rawUserID)
	if err != nil {
		return nil, ErrInvalidUser
	}

	current, err := e.lookup(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	err = e.tx.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Claims.Release(ctx, current.ProviderID, current.Date, current.Time); err != nil {
			return err
		}
		if err := tx.Reservations.Delete(ctx, current.ID); err != nil {
			return err
		}
		return tx.Events.Create(ctx, newEvent(model.EventTypeReservationCancelled, current, nil))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().Str("reservation_id", current.ID.String()).Msg("reservation cancelled")
	return &CancelResult{OK: true, ID: current.ID}, nil
}

// List отдаёт брони пользователя по дате и времени с именами врачей.
func (e *Engine) List(ctx context.Context, rawUserID string, page, pageSize int) (calendar.Page[Entry], error) {
	userID, err := calendar.ValidateUserID(rawUserID)
	if err != nil {
		return calendar.Page[Entry]{}, ErrInvalidUser
	}

	list, err := e.reservations.ListByUser(ctx, userID)
	if err != nil {
		return calendar.Page[Entry]{}, err
	}

	ids := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, r := range list {
		if _, ok := seen[r.ProviderID]; !ok {
			seen[r.ProviderID] = struct{}{}
			ids = append(ids, r.ProviderID)
		}
	}
	providers, err := e.providers.ListByIDs(ctx, ids)
	if err != nil {
		return calendar.Page[Entry]{}, err
	}
	names := make(map[string]string, len(providers))
	for _, p := range providers {
		names[p.ID] = p.Name
	}

	entries := make([]Entry, 0, len(list))
	for _, r := range list {
		entries = append(entries, Entry{Reservation: r, DoctorName: names[r.ProviderID]})
	}
	return calendar.Paginate(entries, page, pageSize), nil
}

// acquire перебирает кандидатов по порядку; при конфликте берётся следующий.
func (e *Engine) acquire(
	ctx context.Context,
	tx *repository.Store,
	candidates []model.Provider,
	userID, department, date, hm string,
) (*model.SlotClaim, *model.Provider, error) {
	for i := range candidates {
		p := &candidates[i]
		claim := &model.SlotClaim{
			ProviderID: p.ID,
			Date:       date,
			Time:       hm,
			Department: department,
			UserID:     userID,
		}
		err := tx.Claims.TryClaim(ctx, claim)
		if err == nil {
			return claim, p, nil
		}
		if !errors.Is(err, repository.ErrClaimConflict) {
			return nil, nil, err
		}

		e.metrics.ObserveClaimConflict()
		e.logger.Info().
			Str("provider_id", p.ID).
			Str("date", date).
			Str("time", hm).
			Msg("slot taken concurrently, trying next provider")
	}
	return nil, nil, ErrSlotUnavailable
}

// trimSlot снимает пробелы по краям отделения, даты и времени.
func trimSlot(department, date, hm string) (string, string, string) {
	return strings.TrimSpace(department), strings.TrimSpace(date), strings.TrimSpace(hm)
}

func (e *Engine) lookup(ctx context.Context, id uuid.UUID, userID string) (*model.Reservation, error) {
	res, err := e.reservations.GetForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// validateShape проверяет форму запроса без учёта даты.
func validateShape(rawUserID, department, hm, purpose string) (string, error) {
	userID, err := calendar.ValidateUserID(rawUserID)
	if err != nil {
		return "", ErrInvalidUser
	}
	if strings.TrimSpace(department) == "" || utf8.RuneCountInString(department) > MaxDepartmentLength {
		return "", ErrInvalidDepartment
	}
	if !schedule.IsGridLabel(hm) {
		return "", ErrInvalidTime
	}
	if utf8.RuneCountInString(purpose) > model.MaxPurposeLength {
		return "", ErrPurposeTooLong
	}
	return userID, nil
}

// validateTarget проверяет целевой слот по порядку, первая неудачная проверка побеждает.
func (e *Engine) validateTarget(ctx context.Context, userID, department, date, hm string, exclude *uuid.UUID) error {
	day, err := e.clock.ParseDate(date)
	if err != nil {
		return ErrInvalidDate
	}
	if e.clock.IsPastDate(date) {
		return ErrPastDate
	}
	if calendar.IsWeekend(day) {
		return ErrWeekend
	}
	if holiday.IsHoliday(day) {
		return ErrHoliday
	}
	if e.clock.IsPastTime(date, hm) {
		return ErrPastTime
	}

	exists, err := e.reservations.ExistsForUserSlot(ctx, userID, department, date, hm, exclude)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReservation
	}
	return nil
}

func (e *Engine) observe(op string, err error) {
	switch domainErr, ok := AsError(err); {
	case err == nil:
		e.metrics.ObserveReservation(op, "ok")
	case ok:
		e.metrics.ObserveReservation(op, string(domainErr.Code))
	default:
		e.metrics.ObserveReservation(op, "error")
		e.logger.Error().Err(err).Str("op", op).Msg("reservation storage failure")
	}
}

func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrDuplicateReservation) {
		return ErrDuplicateReservation
	}
	return err
}

func newEvent(t model.EventType, res, previous *model.Reservation) *model.Event {
	details := datatypes.JSONMap{
		"provider_id": res.ProviderID,
		"department":  res.Department,
		"date":        res.Date,
		"time":        res.Time,
	}
	if previous != nil {
		details["previous"] = map[string]any{
			"provider_id": previous.ProviderID,
			"department":  previous.Department,
			"date":        previous.Date,
			"time":        previous.Time,
		}
	}
	id := res.ID
	return &model.Event{
		EventType:     t,
		UserID:        res.UserID,
		ReservationID: &id,
		Details:       details,
	}
}
