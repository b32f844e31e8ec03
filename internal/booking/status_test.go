package booking

import (
	"errors"
	"testing"

	"studio-service/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from models.BookingStatus
		to   models.BookingStatus
		want bool
	}{
		{models.StatusPendingDeposit, models.StatusDepositPaid, true},
		{models.StatusDepositPaid, models.StatusFullyPaid, true},
		{models.StatusFullyPaid, models.StatusCompleted, true},

		// cancellation from any non-terminal state
		{models.StatusPendingDeposit, models.StatusCancelled, true},
		{models.StatusDepositPaid, models.StatusCancelled, true},
		{models.StatusFullyPaid, models.StatusCancelled, true},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusCancelled, false},

		// no skipping
		{models.StatusPendingDeposit, models.StatusFullyPaid, false},
		{models.StatusPendingDeposit, models.StatusCompleted, false},
		{models.StatusDepositPaid, models.StatusCompleted, false},

		// no going back
		{models.StatusFullyPaid, models.StatusDepositPaid, false},
		{models.StatusDepositPaid, models.StatusPendingDeposit, false},

		// terminal states are dead ends
		{models.StatusCancelled, models.StatusPendingDeposit, false},
		{models.StatusCompleted, models.StatusFullyPaid, false},

		// same-state is rejected
		{models.StatusDepositPaid, models.StatusDepositPaid, false},

		// unknown target
		{models.StatusPendingDeposit, models.BookingStatus("archived"), false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransitionMutatesOnSuccess(t *testing.T) {
	b := &models.Booking{Status: models.StatusPendingDeposit}
	if err := Transition(b, models.StatusDepositPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != models.StatusDepositPaid {
		t.Errorf("status = %s, want deposit_paid", b.Status)
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	b := &models.Booking{Status: models.StatusCompleted}
	err := Transition(b, models.StatusCancelled)
	if err == nil {
		t.Fatal("expected error")
	}

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if b.Status != models.StatusCompleted {
		t.Errorf("status mutated on rejected transition: %s", b.Status)
	}
}
