package reservation

import (
	"errors"
	"fmt"
)

// Code — стабильный код доменной ошибки; клиент по нему выбирает подсказку.
type Code string

const (
	CodeInvalidDepartment   Code = "INVALID_DEPARTMENT"
	CodeInvalidDate         Code = "INVALID_DATE"
	CodeInvalidTime         Code = "INVALID_TIME"
	CodePurposeTooLong      Code = "PURPOSE_TOO_LONG"
	CodeInvalidUser         Code = "INVALID_USER"
	CodePastDate            Code = "PAST_DATE"
	CodeWeekend             Code = "WEEKEND"
	CodeHoliday             Code = "HOLIDAY"
	CodePastTime            Code = "PAST_TIME"
	CodeDuplicate           Code = "DUPLICATE_RESERVATION"
	CodeSlotUnavailable     Code = "SLOT_UNAVAILABLE"
	CodeReservationNotFound Code = "RESERVATION_NOT_FOUND"
)

// Error — доменная ошибка записи. Сравнивается через errors.Is по коду.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Предопределенные ошибки
var (
	// Ошибки формы запроса
	ErrInvalidDepartment = &Error{Code: CodeInvalidDepartment, Message: "department is required and must be at most 100 characters"}
	ErrInvalidDate       = &Error{Code: CodeInvalidDate, Message: "date must be a valid YYYY-MM-DD calendar date"}
	ErrInvalidTime       = &Error{Code: CodeInvalidTime, Message: "time must be a slot between 09:00 and 16:45 in 15 minute steps"}
	ErrPurposeTooLong    = &Error{Code: CodePurposeTooLong, Message: "purpose must be at most 100 characters"}
	ErrInvalidUser       = &Error{Code: CodeInvalidUser, Message: "caller identity is missing"}

	// Ошибки даты и времени
	ErrPastDate = &Error{Code: CodePastDate, Message: "the date has already passed, pick another day"}
	ErrWeekend  = &Error{Code: CodeWeekend, Message: "reservations are not accepted on weekends, pick a weekday"}
	ErrHoliday  = &Error{Code: CodeHoliday, Message: "reservations are not accepted on public holidays, pick another day"}
	ErrPastTime = &Error{Code: CodePastTime, Message: "the time has already passed, pick another time"}

	// Ошибки слотов
	ErrDuplicateReservation = &Error{Code: CodeDuplicate, Message: "you already have a reservation in this department at this date and time"}
	ErrSlotUnavailable      = &Error{Code: CodeSlotUnavailable, Message: "the slot is no longer available, pick another time"}
	ErrReservationNotFound  = &Error{Code: CodeReservationNotFound, Message: "reservation not found"}
)

// AsError достаёт доменную ошибку из цепочки.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
