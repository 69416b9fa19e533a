package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/clinic-calendar/internal/reservation"
)

const ErrorDomain = "calendar"

var grpcCodes = map[reservation.Code]codes.Code{
	reservation.CodeInvalidDepartment:   codes.InvalidArgument,
	reservation.CodeInvalidDate:         codes.InvalidArgument,
	reservation.CodeInvalidTime:         codes.InvalidArgument,
	reservation.CodePurposeTooLong:      codes.InvalidArgument,
	reservation.CodeInvalidUser:         codes.Unauthenticated,
	reservation.CodePastDate:            codes.FailedPrecondition,
	reservation.CodeWeekend:             codes.FailedPrecondition,
	reservation.CodeHoliday:             codes.FailedPrecondition,
	reservation.CodePastTime:            codes.FailedPrecondition,
	reservation.CodeDuplicate:           codes.AlreadyExists,
	reservation.CodeSlotUnavailable:     codes.Aborted,
	reservation.CodeReservationNotFound: codes.NotFound,
}

// toStatus переводит ошибку движка в статус gRPC.
// Доменные ошибки несут код в ErrorInfo.Reason; инфраструктурные превращаются в Internal без подробностей.
func toStatus(logger zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if domainErr, ok := reservation.AsError(err); ok {
		code, known := grpcCodes[domainErr.Code]
		if !known {
			code = codes.FailedPrecondition
		}
		st := status.New(code, domainErr.Message)
		if withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: string(domainErr.Code),
			Domain: ErrorDomain,
		}); detailErr == nil {
			st = withDetails
		}
		return st.Err()
	}

	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	logger.Error().Err(err).Msg("internal error")
	return status.Error(codes.Internal, "internal error")
}

// ReasonFromError достаёт код доменной ошибки из статуса gRPC (для клиентов).
func ReasonFromError(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}
