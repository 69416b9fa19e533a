package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/clinic-calendar/internal/availability"
	"github.com/Leganyst/clinic-calendar/internal/calendar"
	"github.com/Leganyst/clinic-calendar/internal/holiday"
	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/reservation"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

// MaxAvailabilityDates — сколько дней можно запросить за один вызов.
const MaxAvailabilityDates = 62

type AvailabilityReader interface {
	ForDates(ctx context.Context, department string, dates []string, userID string) ([]availability.DateAvailability, error)
}

type Reservations interface {
	Create(ctx context.Context, in reservation.CreateInput) (*reservation.Entry, error)
	Update(ctx context.Context, in reservation.UpdateInput) (*reservation.Entry, error)
	Cancel(ctx context.Context, userID string, id uuid.UUID) (*reservation.CancelResult, error)
	List(ctx context.Context, userID string, page, pageSize int) (calendar.Page[reservation.Entry], error)
}

// Directory — справочник отделений и врачей.
type Directory interface {
	ListDepartments(ctx context.Context) ([]string, error)
	ListDoctors(ctx context.Context, department string) ([]model.Provider, error)
}

type CalendarService struct {
	availability AvailabilityReader
	reservations Reservations
	directory    Directory
	logger       zerolog.Logger
}

func NewCalendarService(
	avail AvailabilityReader,
	reservations Reservations,
	directory Directory,
	logger zerolog.Logger,
) *CalendarService {
	return &CalendarService{
		availability: avail,
		reservations: reservations,
		directory:    directory,
		logger:       logger.With().Str("component", "calendar_service").Logger(),
	}
}

var _ CalendarServer = (*CalendarService)(nil)

func (s *CalendarService) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	department := strings.TrimSpace(req.Department)
	if department == "" {
		return nil, status.Error(codes.InvalidArgument, "department is required")
	}
	if len(req.Dates) == 0 {
		return nil, status.Error(codes.InvalidArgument, "dates are required")
	}
	if len(req.Dates) > MaxAvailabilityDates {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d dates per request", MaxAvailabilityDates)
	}

	days, err := s.availability.ForDates(ctx, department, req.Dates, UserIDFromContext(ctx))
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	return &GetAvailabilityResponse{Days: days}, nil
}

func (s *CalendarService) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*ReservationResponse, error) {
	res, err := s.reservations.Create(ctx, reservation.CreateInput{
		UserID:     UserIDFromContext(ctx),
		Department: req.Department,
		Date:       req.Date,
		Time:       req.Time,
		Purpose:    req.Purpose,
	})
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	return &ReservationResponse{Reservation: mapReservation(&res.Reservation, res.DoctorName)}, nil
}

func (s *CalendarService) UpdateReservation(ctx context.Context, req *UpdateReservationRequest) (*ReservationResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "id must be a valid uuid")
	}

	res, err := s.reservations.Update(ctx, reservation.UpdateInput{
		ID:         id,
		UserID:     UserIDFromContext(ctx),
		Department: req.Department,
		Date:       req.Date,
		Time:       req.Time,
		Purpose:    req.Purpose,
	})
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	return &ReservationResponse{Reservation: mapReservation(&res.Reservation, res.DoctorName)}, nil
}

func (s *CalendarService) CancelReservation(ctx context.Context, req *CancelReservationRequest) (*CancelReservationResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "id must be a valid uuid")
	}

	ack, err := s.reservations.Cancel(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	return &CancelReservationResponse{OK: ack.OK, ID: ack.ID.String()}, nil
}

func (s *CalendarService) ListReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error) {
	page, err := s.reservations.List(ctx, UserIDFromContext(ctx), req.Page, req.PageSize)
	if err != nil {
		return nil, toStatus(s.logger, err)
	}

	resp := &ListReservationsResponse{
		Reservations: make([]Reservation, 0, len(page.Items)),
		Page:         page.Page,
		PageSize:     page.PageSize,
		Total:        page.Total,
		HasNext:      page.HasNext,
	}
	for i := range page.Items {
		resp.Reservations = append(resp.Reservations, mapReservation(&page.Items[i].Reservation, page.Items[i].DoctorName))
	}
	return resp, nil
}

func (s *CalendarService) ListDepartments(ctx context.Context, _ *ListDepartmentsRequest) (*ListDepartmentsResponse, error) {
	departments, err := s.directory.ListDepartments(ctx)
	if err != nil {
		return nil, toStatus(s.logger, err)
	}
	if departments == nil {
		departments = []string{}
	}
	return &ListDepartmentsResponse{Departments: departments}, nil
}

func (s *CalendarService) ListDoctors(ctx context.Context, req *ListDoctorsRequest) (*ListDoctorsResponse, error) {
	providers, err := s.directory.ListDoctors(ctx, req.Department)
	if err != nil {
		return nil, toStatus(s.logger, err)
	}

	resp := &ListDoctorsResponse{Doctors: make([]Doctor, 0, len(providers))}
	for i := range providers {
		resp.Doctors = append(resp.Doctors, Doctor{
			ID:         providers[i].ID,
			Name:       providers[i].Name,
			Department: providers[i].Department,
			Schedules:  providers[i].Weekly(),
		})
	}
	return resp, nil
}

func (s *CalendarService) ListHolidays(_ context.Context, req *ListHolidaysRequest) (*ListHolidaysResponse, error) {
	// формула равноденствий верна для 2000–2099
	if req.Year < 2000 || req.Year > 2099 {
		return nil, status.Error(codes.InvalidArgument, "year must be between 2000 and 2099")
	}

	days := holiday.Holidays(req.Year)
	resp := &ListHolidaysResponse{
		Year:      req.Year,
		Holidays:  make([]string, 0, len(days)),
		TimeSlots: schedule.Grid,
	}
	for _, d := range days {
		resp.Holidays = append(resp.Holidays, d.Format(calendar.DateLayout))
	}
	return resp, nil
}

func mapReservation(r *model.Reservation, doctorName string) Reservation {
	return Reservation{
		ID:         r.ID.String(),
		ProviderID: r.ProviderID,
		DoctorName: doctorName,
		Department: r.Department,
		Date:       r.Date,
		Time:       r.Time,
		Purpose:    r.Purpose,
		CreatedAt:  r.CreatedAt,
	}
}
