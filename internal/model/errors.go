package model

import "errors"

// Sentinel errors shared across the booking, entitlement, and assignment
// layers. All are expected outcomes the caller can act on; handlers translate
// them to HTTP statuses. Anything else bubbling out of a service is treated as
// an infrastructure failure.
var (
	// ErrValidation covers malformed or missing input (end before start,
	// unknown plan, bad clock time).
	ErrValidation = errors.New("invalid input")

	// ErrNotBookable means the doctor is unverified or the subscription is
	// not active; booking requires an out-of-band admin or payment action.
	ErrNotBookable = errors.New("doctor cannot currently be booked")

	// ErrInvalidSlot means the requested time is not in the generated
	// candidate set for that doctor and date.
	ErrInvalidSlot = errors.New("requested time is not an offered slot")

	// ErrSlotTaken is the advisory fast-path conflict: an overlapping
	// appointment already existed when the request was checked.
	ErrSlotTaken = errors.New("time slot is no longer available")

	// ErrConcurrentBooking means the authoritative write lost a race against
	// another booking that committed between check and insert.
	ErrConcurrentBooking = errors.New("time slot was booked concurrently")

	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
)
