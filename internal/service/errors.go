package service

import "errors"

// Domain errors. Handlers map them onto HTTP statuses with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
