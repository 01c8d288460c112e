package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSelfTransfer       = errors.New("cannot transfer to your own account")
	ErrNotFound           = errors.New("not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrDuplicatePhone     = errors.New("phone number already registered")
	ErrBalanceLimit       = errors.New("balance limit exceeded")
)

// HTTPStatus maps a domain error to the status code returned to clients.
// Anything unrecognised is an internal error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrBalanceLimit):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicatePhone):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err is a domain error whose message may be shown to clients.
func Public(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
