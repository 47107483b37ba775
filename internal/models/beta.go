package models

import (
	"errors"
	"time"
)

var (
	ErrBetaAlreadyAccepted = errors.New("beta terms already accepted")
	ErrBetaAlreadyDeclined = errors.New("beta terms already declined")
	ErrBetaNotAccepted     = errors.New("beta terms must be accepted first")
)

// BetaProgram tracks a user's response to the beta terms.
//
// A user starts with no response. Accepting is permanent; declining is not,
// so a user who declined can still accept later. The confirmation page can
// only be marked as seen after acceptance.
type BetaProgram struct {
	HasAccepted         bool       `bson:"hasAccepted" json:"hasAccepted"`
	HasDeclined         bool       `bson:"hasDeclined" json:"hasDeclined"`
	HasSeenConfirmation bool       `bson:"hasSeenConfirmation" json:"hasSeenConfirmation"`
	AcceptedAt          *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt"`
	DeclinedAt          *time.Time `bson:"declinedAt,omitempty" json:"declinedAt"`
	ConfirmationSeenAt  *time.Time `bson:"confirmationSeenAt,omitempty" json:"confirmationSeenAt"`
}

// Accept records acceptance of the beta terms.
func (b *BetaProgram) Accept(now time.Time) error {
	if b.HasAccepted {
		return ErrBetaAlreadyAccepted
	}
	b.HasAccepted = true
	b.AcceptedAt = &now
	return nil
}

// Decline records that the user declined the beta terms.
func (b *BetaProgram) Decline(now time.Time) error {
	if b.HasAccepted {
		return ErrBetaAlreadyAccepted
	}
	if b.HasDeclined {
		return ErrBetaAlreadyDeclined
	}
	b.HasDeclined = true
	b.DeclinedAt = &now
	return nil
}

// MarkConfirmationSeen records that the post-acceptance page was shown.
// Repeated calls keep the first timestamp.
func (b *BetaProgram) MarkConfirmationSeen(now time.Time) error {
	if !b.HasAccepted {
		return ErrBetaNotAccepted
	}
	if b.HasSeenConfirmation {
		return nil
	}
	b.HasSeenConfirmation = true
	b.ConfirmationSeenAt = &now
	return nil
}

// GateState is where the beta gate sends a user.
type GateState string

const (
	GateAgreement    GateState = "agreement"
	GateConfirmation GateState = "confirmation"
	GateOpen         GateState = "open"
)

// Gate returns the gate state for the current responses.
func (b BetaProgram) Gate() GateState {
	switch {
	case !b.HasAccepted:
		return GateAgreement
	case !b.HasSeenConfirmation:
		return GateConfirmation
	default:
		return GateOpen
	}
}
