package booking

import (
	"fmt"

	"studio-service/internal/models"
)

// InvalidTransitionError describes a rejected status change.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("booking is already %s", e.From)
	}
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

// CanTransition encodes the booking lifecycle:
//
//	pending_deposit -> deposit_paid -> fully_paid -> completed
//
// with cancellation reachable from any non-terminal state. A same-state
// transition is rejected so callers can treat it as a no-op.
func CanTransition(from, to models.BookingStatus) bool {
	if from == to || !to.Valid() {
		return false
	}
	if to == models.StatusCancelled {
		return !from.Terminal()
	}
	switch from {
	case models.StatusPendingDeposit:
		return to == models.StatusDepositPaid
	case models.StatusDepositPaid:
		return to == models.StatusFullyPaid
	case models.StatusFullyPaid:
		return to == models.StatusCompleted
	}
	return false
}

// Transition validates and applies a status change on the booking value.
func Transition(b *models.Booking, to models.BookingStatus) error {
	if !CanTransition(b.Status, to) {
		return &InvalidTransitionError{From: b.Status, To: to}
	}
	b.Status = to
	return nil
}

// paymentRank orders the paid progression so webhook handling can tell a
// stale or duplicate delivery (current rank at or past the target) from a
// genuine advancement. Cancelled sits outside the progression.
func paymentRank(s models.BookingStatus) int {
	switch s {
	case models.StatusPendingDeposit:
		return 0
	case models.StatusDepositPaid:
		return 1
	case models.StatusFullyPaid:
		return 2
	case models.StatusCompleted:
		return 3
	}
	return -1
}
