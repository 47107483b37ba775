package models

import (
	"errors"
	"testing"
	"time"
)

func TestBetaProgram_Accept(t *testing.T) {
	var b BetaProgram
	now := time.Now()

	if err := b.Accept(now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !b.HasAccepted || b.AcceptedAt == nil {
		t.Fatal("expected accepted with timestamp")
	}

	if err := b.Accept(now); !errors.Is(err, ErrBetaAlreadyAccepted) {
		t.Errorf("second Accept: expected ErrBetaAlreadyAccepted, got %v", err)
	}
}

func TestBetaProgram_DeclineThenAccept(t *testing.T) {
	var b BetaProgram
	now := time.Now()

	if err := b.Decline(now); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if err := b.Decline(now); !errors.Is(err, ErrBetaAlreadyDeclined) {
		t.Errorf("second Decline: expected ErrBetaAlreadyDeclined, got %v", err)
	}

	// Declining never blocks a later accept.
	if err := b.Accept(now); err != nil {
		t.Fatalf("Accept after decline: %v", err)
	}
	if !b.HasAccepted {
		t.Error("expected HasAccepted after accept")
	}

	if err := b.Decline(now); !errors.Is(err, ErrBetaAlreadyAccepted) {
		t.Errorf("Decline after accept: expected ErrBetaAlreadyAccepted, got %v", err)
	}
}

func TestBetaProgram_MarkConfirmationSeen(t *testing.T) {
	var b BetaProgram
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := b.MarkConfirmationSeen(first); !errors.Is(err, ErrBetaNotAccepted) {
		t.Fatalf("expected ErrBetaNotAccepted, got %v", err)
	}

	_ = b.Accept(first)
	if err := b.MarkConfirmationSeen(first); err != nil {
		t.Fatalf("MarkConfirmationSeen: %v", err)
	}
	if err := b.MarkConfirmationSeen(first.Add(time.Hour)); err != nil {
		t.Fatalf("repeat MarkConfirmationSeen: %v", err)
	}
	if !b.ConfirmationSeenAt.Equal(first) {
		t.Errorf("ConfirmationSeenAt = %v, want first timestamp %v", b.ConfirmationSeenAt, first)
	}
}

func TestBetaProgram_Gate(t *testing.T) {
	tests := []struct {
		name string
		b    BetaProgram
		want GateState
	}{
		{"no response", BetaProgram{}, GateAgreement},
		{"declined", BetaProgram{HasDeclined: true}, GateAgreement},
		{"accepted", BetaProgram{HasAccepted: true}, GateConfirmation},
		{"confirmed", BetaProgram{HasAccepted: true, HasSeenConfirmation: true}, GateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Gate(); got != tt.want {
				t.Errorf("Gate() = %q, want %q", got, tt.want)
			}
		})
	}
}
