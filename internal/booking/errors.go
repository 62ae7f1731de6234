package booking

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("booking: session not found")

	// ErrStageIncomplete is returned when advancing without the stage's fields
	ErrStageIncomplete = errors.New("booking: stage incomplete")

	// ErrAlreadyConfirmed is returned when a confirmed booking is changed or confirmed again
	ErrAlreadyConfirmed = errors.New("booking: already confirmed")

	// ErrConfirmationRequired is returned by Next on the patient stage; Confirm must be used
	ErrConfirmationRequired = errors.New("booking: use confirm to finish the booking")

	// ErrInvalidStage is returned for unknown stages and forward jumps
	ErrInvalidStage = errors.New("booking: invalid stage")

	// ErrLocationUnavailable is returned when the hospital is not taking bookings
	ErrLocationUnavailable = errors.New("booking: location unavailable")

	// ErrPastDate is returned when selecting a date before today
	ErrPastDate = errors.New("booking: date is in the past")

	// ErrSlotUnavailable is returned when the time slot is not offered for the doctor and date
	ErrSlotUnavailable = errors.New("booking: time slot not available")

	// ErrDateRequired is returned when picking a slot before a date
	ErrDateRequired = errors.New("booking: select a date first")
)
