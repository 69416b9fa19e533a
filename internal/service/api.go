package service

import (
	"time"

	"github.com/Leganyst/clinic-calendar/internal/availability"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

// Сообщения calendar.v1.CalendarService. Передаются JSON-кодеком (content-subtype "json").

type GetAvailabilityRequest struct {
	Department string   `json:"department"`
	Dates      []string `json:"dates"`
}

type GetAvailabilityResponse struct {
	Days []availability.DateAvailability `json:"days"`
}

type CreateReservationRequest struct {
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Purpose    string `json:"purpose,omitempty"`
}

type UpdateReservationRequest struct {
	ID         string `json:"id"`
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Purpose    string `json:"purpose,omitempty"`
}

type CancelReservationRequest struct {
	ID string `json:"id"`
}

type CancelReservationResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type Reservation struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"doctor_id"`
	DoctorName string    `json:"doctor_name,omitempty"`
	Department string    `json:"department"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Purpose    string    `json:"purpose,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReservationResponse struct {
	Reservation Reservation `json:"reservation"`
}

type ListReservationsRequest struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

type ListReservationsResponse struct {
	Reservations []Reservation `json:"reservations"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	Total        int           `json:"total"`
	HasNext      bool          `json:"has_next"`
}

type ListDepartmentsRequest struct{}

type ListDepartmentsResponse struct {
	Departments []string `json:"departments"`
}

type ListDoctorsRequest struct {
	Department string `json:"department,omitempty"`
}

type Doctor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Department string          `json:"department"`
	Schedules  schedule.Weekly `json:"schedules"`
}

type ListDoctorsResponse struct {
	Doctors []Doctor `json:"doctors"`
}

type ListHolidaysRequest struct {
	Year int `json:"year"`
}

type ListHolidaysResponse struct {
	Year     int      `json:"year"`
	Holidays []string `json:"holidays"`
	// Сетка слотов отдаётся вместе с праздниками, чтобы фронтенд не дублировал её.
	TimeSlots []string `json:"time_slots"`
}
