package reservation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-calendar/internal/availability"
	"github.com/Leganyst/clinic-calendar/internal/calendar"
	"github.com/Leganyst/clinic-calendar/internal/db/dbtest"
	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/reservation"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

const monday = "2026-10-26"

// Понедельник 2026-10-19, 10:05 по Токио.
func testClock() *calendar.Clock {
	jst := time.FixedZone("JST", 9*3600)
	now := time.Date(2026, 10, 19, 10, 5, 0, 0, jst)
	return calendar.NewClockFunc(jst, func() time.Time { return now })
}

func mondayMorning(id, name string) *model.Provider {
	return &model.Provider{
		ID:         id,
		Name:       name,
		Department: "X",
		Schedules: datatypes.NewJSONType(schedule.Weekly{
			schedule.Mon: schedule.MustRange("09:00", "12:00"),
			schedule.Tue: schedule.MustRange("09:00", "12:00"),
		}),
	}
}

type fixture struct {
	store  *repository.Store
	engine *reservation.Engine
}

func newFixture(t *testing.T, providers ...*model.Provider) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(dbtest.Open(t))
	for _, p := range providers {
		if err := store.Providers.Upsert(ctx, p); err != nil {
			t.Fatalf("seed provider: %v", err)
		}
	}
	clock := testClock()
	avail := availability.NewEngine(store.Providers, store.Claims, clock, nil)
	return &fixture{
		store:  store,
		engine: reservation.NewEngine(store, avail, clock, zerolog.Nop(), nil),
	}
}

func (f *fixture) create(t *testing.T, userID, date, hm string) *reservation.Entry {
	t.Helper()
	res, err := f.engine.Create(context.Background(), reservation.CreateInput{
		UserID: userID, Department: "X", Date: date, Time: hm, Purpose: "checkup",
	})
	if err != nil {
		t.Fatalf("create %s %s for %s: %v", date, hm, userID, err)
	}
	return res
}

func (f *fixture) claims(t *testing.T, providerIDs ...string) repository.ClaimSet {
	t.Helper()
	set, err := f.store.Claims.BulkQuery(context.Background(), providerIDs, []string{monday, "2026-10-27"})
	if err != nil {
		t.Fatalf("BulkQuery: %v", err)
	}
	return set
}

func (f *fixture) events(t *testing.T, id uuid.UUID) []model.Event {
	t.Helper()
	list, err := f.store.Events.ListByReservation(context.Background(), id)
	if err != nil {
		t.Fatalf("ListByReservation: %v", err)
	}
	return list
}

func TestCreate_SingleProviderThenExhausted(t *testing.T) {
	f := newFixture(t, mondayMorning("doc_x_01", "Yamada"))

	res := f.create(t, "u1", monday, "09:00")
	if res.ProviderID != "doc_x_01" || res.ID == uuid.Nil || res.DoctorName != "Yamada" {
		t.Fatalf("unexpected reservation: %+v", res)
	}
	if !f.claims(t, "doc_x_01").Has("doc_x_01", monday, "09:00") {
		t.Fatalf("expected live claim for the assigned provider")
	}
	if ev := f.events(t, res.ID); len(ev) != 1 || ev[0].EventType != model.EventTypeReservationCreated {
		t.Fatalf("expected one created event, got %+v", ev)
	}

	_, err := f.engine.Create(context.Background(), reservation.CreateInput{
		UserID: "u2", Department: "X", Date: monday, Time: "09:00",
	})
	if !errors.Is(err, reservation.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCreate_TrimsSlotFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "Yamada"))

	res, err := f.engine.Create(ctx, reservation.CreateInput{
		UserID: "u1", Department: " X ", Date: " " + monday + " ", Time: " 09:15 ",
	})
	if err != nil {
		t.Fatalf("Create with padded fields: %v", err)
	}
	if res.Department != "X" || res.Date != monday || res.Time != "09:15" || res.DoctorName != "Yamada" {
		t.Fatalf("expected trimmed fields, got %+v", res)
	}

	moved, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: res.ID, UserID: "u1", Department: "X\t", Date: monday, Time: "09:30 ",
	})
	if err != nil {
		t.Fatalf("Update with padded fields: %v", err)
	}
	if moved.Department != "X" || moved.Time != "09:30" {
		t.Fatalf("expected trimmed fields, got %+v", moved)
	}

	_, err = f.engine.Create(ctx, reservation.CreateInput{UserID: "u2", Department: "   ", Date: monday, Time: "09:00"})
	if !errors.Is(err, reservation.ErrInvalidDepartment) {
		t.Fatalf("expected ErrInvalidDepartment for blank department, got %v", err)
	}
}

func TestCreate_DuplicateSelfBooking(t *testing.T) {
	f := newFixture(t, mondayMorning("doc_x_01", "A"), mondayMorning("doc_x_02", "B"))

	f.create(t, "u1", monday, "09:00")
	_, err := f.engine.Create(context.Background(), reservation.CreateInput{
		UserID: "u1", Department: "X", Date: monday, Time: "09:00",
	})
	if !errors.Is(err, reservation.ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}
	if len(f.claims(t, "doc_x_01", "doc_x_02")) != 1 {
		t.Fatalf("duplicate attempt must not leave a claim behind")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, mondayMorning("doc_x_01", "A"))

	cases := []struct {
		name string
		in   reservation.CreateInput
		want error
	}{
		{"missing user", reservation.CreateInput{Department: "X", Date: monday, Time: "09:00"}, reservation.ErrInvalidUser},
		{"missing department", reservation.CreateInput{UserID: "u1", Date: monday, Time: "09:00"}, reservation.ErrInvalidDepartment},
		{"off-grid time", reservation.CreateInput{UserID: "u1", Department: "X", Date: monday, Time: "09:10"}, reservation.ErrInvalidTime},
		{"after hours", reservation.CreateInput{UserID: "u1", Department: "X", Date: monday, Time: "17:00"}, reservation.ErrInvalidTime},
		{"long purpose", reservation.CreateInput{UserID: "u1", Department: "X", Date: monday, Time: "09:00", Purpose: strings.Repeat("診", 101)}, reservation.ErrPurposeTooLong},
		{"bad date", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-02-30", Time: "09:00"}, reservation.ErrInvalidDate},
		{"past date", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-10-16", Time: "09:00"}, reservation.ErrPastDate},
		{"past weekend reports past", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-10-18", Time: "09:00"}, reservation.ErrPastDate},
		{"weekend", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-10-24", Time: "09:00"}, reservation.ErrWeekend},
		{"holiday", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-11-03", Time: "09:00"}, reservation.ErrHoliday},
		{"past time today", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-10-19", Time: "10:00"}, reservation.ErrPastTime},
		{"now is past", reservation.CreateInput{UserID: "u1", Department: "X", Date: "2026-10-19", Time: "09:45"}, reservation.ErrPastTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Create(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// purpose ровно 100 символов допустима
	_, err := f.engine.Create(context.Background(), reservation.CreateInput{
		UserID: "u1", Department: "X", Date: monday, Time: "09:00", Purpose: strings.Repeat("診", 100),
	})
	if err != nil {
		t.Fatalf("100 character purpose must be accepted: %v", err)
	}
}

func TestCreate_LaterTodayAccepted(t *testing.T) {
	f := newFixture(t, mondayMorning("doc_x_01", "A"))

	res := f.create(t, "u1", "2026-10-19", "10:15")
	if res.Date != "2026-10-19" {
		t.Fatalf("unexpected reservation: %+v", res)
	}
}

type fixedCandidates []model.Provider

func (c fixedCandidates) AvailableProviders(context.Context, string, string, string) ([]model.Provider, error) {
	return c, nil
}

func TestCreate_FallsBackToNextCandidate(t *testing.T) {
	ctx := context.Background()
	a := mondayMorning("doc_x_01", "A")
	b := mondayMorning("doc_x_02", "B")
	store := repository.NewStore(dbtest.Open(t))

	// doc_x_01 занят конкурентным запросом после расчёта кандидатов
	if err := store.Claims.TryClaim(ctx, &model.SlotClaim{
		ProviderID: a.ID, Date: monday, Time: "09:00", Department: "X", UserID: "racer",
	}); err != nil {
		t.Fatalf("seed claim: %v", err)
	}

	engine := reservation.NewEngine(store, fixedCandidates{*a, *b}, testClock(), zerolog.Nop(), nil)
	res, err := engine.Create(ctx, reservation.CreateInput{UserID: "u1", Department: "X", Date: monday, Time: "09:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ProviderID != b.ID {
		t.Fatalf("expected fallback to %s, got %s", b.ID, res.ProviderID)
	}

	// все кандидаты заняты: отказ без частичных записей
	_, err = engine.Create(ctx, reservation.CreateInput{UserID: "u2", Department: "X", Date: monday, Time: "09:00"})
	if !errors.Is(err, reservation.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	list, err := store.Reservations.ListByUser(ctx, "u2")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no reservation for u2, got %v, %v", list, err)
	}
}

func TestCreate_ConcurrentRequestsNeverDoubleBook(t *testing.T) {
	f := newFixture(t, mondayMorning("doc_x_01", "A"), mondayMorning("doc_x_02", "B"))

	const users = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []*reservation.Entry
		exhausted int
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.engine.Create(context.Background(), reservation.CreateInput{
				UserID: uuid.NewString(), Department: "X", Date: monday, Time: "11:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded = append(succeeded, res)
			case errors.Is(err, reservation.ErrSlotUnavailable):
				exhausted++
			default:
				t.Errorf("user %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if len(succeeded) != 2 || exhausted != users-2 {
		t.Fatalf("expected 2 successes and %d exhaustions, got %d/%d", users-2, len(succeeded), exhausted)
	}
	if succeeded[0].ProviderID == succeeded[1].ProviderID {
		t.Fatalf("provider %s double-booked", succeeded[0].ProviderID)
	}
	set := f.claims(t, "doc_x_01", "doc_x_02")
	if !set.Has("doc_x_01", monday, "11:00") || !set.Has("doc_x_02", monday, "11:00") {
		t.Fatalf("expected one live claim per provider, got %v", set)
	}
}

func TestCancel_ReleasesCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "A"))

	res := f.create(t, "u1", monday, "09:00")

	if _, err := f.engine.Cancel(ctx, "u2", res.ID); !errors.Is(err, reservation.ErrReservationNotFound) {
		t.Fatalf("foreign cancel must be not found, got %v", err)
	}

	ack, err := f.engine.Cancel(ctx, "u1", res.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !ack.OK || ack.ID != res.ID {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(f.claims(t, "doc_x_01")) != 0 {
		t.Fatalf("claim must be released")
	}
	if ev := f.events(t, res.ID); len(ev) != 2 || ev[1].EventType != model.EventTypeReservationCancelled {
		t.Fatalf("expected created+cancelled events, got %+v", ev)
	}

	again := f.create(t, "u2", monday, "09:00")
	if again.ProviderID != "doc_x_01" {
		t.Fatalf("released slot must be claimable again, got %+v", again)
	}

	if _, err := f.engine.Cancel(ctx, "u1", res.ID); !errors.Is(err, reservation.ErrReservationNotFound) {
		t.Fatalf("second cancel must be not found, got %v", err)
	}
}

func TestUpdate_Reschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "A"))

	res := f.create(t, "u1", monday, "09:00")
	moved, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: res.ID, UserID: "u1", Department: "X", Date: "2026-10-27", Time: "10:00", Purpose: "follow-up",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if moved.ID != res.ID || moved.Date != "2026-10-27" || moved.Time != "10:00" || moved.Purpose != "follow-up" || moved.DoctorName != "A" {
		t.Fatalf("unexpected updated reservation: %+v", moved)
	}

	set := f.claims(t, "doc_x_01")
	if set.Has("doc_x_01", monday, "09:00") || !set.Has("doc_x_01", "2026-10-27", "10:00") || len(set) != 1 {
		t.Fatalf("expected claim to move, got %v", set)
	}

	stored, err := f.store.Reservations.GetForUser(ctx, res.ID, "u1")
	if err != nil || stored.Date != "2026-10-27" {
		t.Fatalf("stored reservation not updated: %+v, %v", stored, err)
	}
	if ev := f.events(t, res.ID); len(ev) != 2 || ev[1].EventType != model.EventTypeReservationUpdated {
		t.Fatalf("expected updated event, got %+v", ev)
	}

	f.create(t, "u2", monday, "09:00")
}

func TestUpdate_FailedRescheduleKeepsOriginalClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "A"))

	mine := f.create(t, "u1", monday, "09:00")
	f.create(t, "u2", monday, "10:00")

	_, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: mine.ID, UserID: "u1", Department: "X", Date: monday, Time: "10:00", Purpose: "checkup",
	})
	if !errors.Is(err, reservation.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	if !f.claims(t, "doc_x_01").Has("doc_x_01", monday, "09:00") {
		t.Fatalf("original claim must survive a failed reschedule")
	}
	stored, err := f.store.Reservations.GetForUser(ctx, mine.ID, "u1")
	if err != nil || stored.Time != "09:00" {
		t.Fatalf("reservation must be unchanged: %+v, %v", stored, err)
	}
}

func TestUpdate_NoOpAndPurposeOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "A"))
	res := f.create(t, "u1", monday, "09:00")

	same, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: res.ID, UserID: "u1", Department: "X", Date: monday, Time: "09:00", Purpose: "checkup",
	})
	if err != nil {
		t.Fatalf("no-op Update: %v", err)
	}
	if same.ID != res.ID || same.Purpose != "checkup" || same.DoctorName != "A" {
		t.Fatalf("unexpected no-op result: %+v", same)
	}
	if ev := f.events(t, res.ID); len(ev) != 1 {
		t.Fatalf("no-op must not write, got %d events", len(ev))
	}

	updated, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: res.ID, UserID: "u1", Department: "X", Date: monday, Time: "09:00", Purpose: "headache",
	})
	if err != nil {
		t.Fatalf("purpose Update: %v", err)
	}
	if updated.Purpose != "headache" || updated.ProviderID != "doc_x_01" || updated.DoctorName != "A" {
		t.Fatalf("unexpected purpose update: %+v", updated)
	}
	set := f.claims(t, "doc_x_01")
	if len(set) != 1 || !set.Has("doc_x_01", monday, "09:00") {
		t.Fatalf("purpose change must not touch claims: %v", set)
	}
}

func TestUpdate_NotFoundAndDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "A"), mondayMorning("doc_x_02", "B"))

	first := f.create(t, "u1", monday, "09:00")
	f.create(t, "u1", monday, "09:30")

	_, err := f.engine.Update(ctx, reservation.UpdateInput{
		ID: first.ID, UserID: "u2", Department: "X", Date: monday, Time: "10:00",
	})
	if !errors.Is(err, reservation.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}

	_, err = f.engine.Update(ctx, reservation.UpdateInput{
		ID: first.ID, UserID: "u1", Department: "X", Date: monday, Time: "09:30", Purpose: "checkup",
	})
	if !errors.Is(err, reservation.ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}

	_, err = f.engine.Update(ctx, reservation.UpdateInput{
		ID: first.ID, UserID: "u1", Department: "X", Date: "2026-10-24", Time: "09:00", Purpose: "checkup",
	})
	if !errors.Is(err, reservation.ErrWeekend) {
		t.Fatalf("expected ErrWeekend, got %v", err)
	}
}

func TestList_ResolvesDoctorNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mondayMorning("doc_x_01", "Yamada Taro"), mondayMorning("doc_x_02", "Sato Hanako"))

	f.create(t, "u1", "2026-10-27", "09:00")
	f.create(t, "u1", monday, "11:00")
	f.create(t, "u1", monday, "09:15")
	f.create(t, "u2", monday, "09:15")

	page, err := f.engine.List(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || !page.HasNext {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Time != "09:15" || page.Items[1].Time != "11:00" {
		t.Fatalf("expected date,time order, got %s, %s", page.Items[0].Time, page.Items[1].Time)
	}
	if page.Items[0].DoctorName != "Yamada Taro" {
		t.Fatalf("expected doctor name resolved, got %q", page.Items[0].DoctorName)
	}

	if _, err := f.engine.List(ctx, " ", 1, 10); !errors.Is(err, reservation.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}
