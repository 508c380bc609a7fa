package models

import "errors"

// Error taxonomy shared across store, services and handlers.
// Handlers map these onto HTTP status codes with errors.Is.
var (
	ErrNotFound      = errors.New("shipment not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidStage  = errors.New("invalid stage")
	ErrTerminalState = errors.New("shipment already delivered")
)
