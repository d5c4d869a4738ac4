package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEmptyWords           = fmt.Errorf("no words have been found")
	ErrInvalidPrompt        = fmt.Errorf("invalid prompt")
	ErrInvalidResponse      = fmt.Errorf("invalid response")
	ErrInvalidIdentifier    = fmt.Errorf("invalid identifier")
	ErrSessionNotFound      = fmt.Errorf("session not found")
	ErrSessionCodeExhausted = fmt.Errorf("no free session code after several attempts")
	ErrTooManyConflicts     = fmt.Errorf("too many concurrent writes, giving up")
	ErrInvalidCharacter     = fmt.Errorf("replacement must be a single character")
	ErrUnauthorized         = fmt.Errorf("presenter token missing or invalid")
)

// MapToGRPCError translates domain errors into gRPC status errors.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidPrompt),
		errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrInvalidIdentifier):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrSessionCodeExhausted),
		errors.Is(err, ErrTooManyConflicts):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// MapToHTTPError returns the status and error code an HTTP client sees for err.
func MapToHTTPError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidPrompt):
		return http.StatusBadRequest, "INVALID_PROMPT"
	case errors.Is(err, ErrInvalidResponse):
		return http.StatusBadRequest, "INVALID_RESPONSE"
	case errors.Is(err, ErrInvalidIdentifier):
		return http.StatusBadRequest, "INVALID_IDENTIFIER"
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrSessionCodeExhausted),
		errors.Is(err, ErrTooManyConflicts):
		return http.StatusServiceUnavailable, "BUSY"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
