package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no confirmation has the reference
	ErrBookingNotFound = errors.New("booking not found")

	// ErrDuplicateReference is returned when a reference was already archived
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrInvalidRecord is returned when a record is missing its reference or session
	ErrInvalidRecord = errors.New("booking record requires reference and session id")
)
