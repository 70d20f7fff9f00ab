package quotes

import (
	"fmt"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// Stage is the lifecycle status of a quote. The stage graph is deliberately
// flat: any enumerated value may be assigned from any other, with one
// special case. Entering Confirmed requires a purchase-order attachment,
// and an attachment may only accompany a Confirmed transition. Closed Won
// and Closed Lost model no outgoing transitions but re-assignment away from
// them is not rejected either; that matches the system this replaces.
type Stage string

const (
	StageDraft       Stage = "Draft"
	StageNegotiation Stage = "Negotiation"
	StageDelivered   Stage = "Delivered"
	StageOnHold      Stage = "On Hold"
	StageConfirmed   Stage = "Confirmed"
	StageClosedWon   Stage = "Closed Won"
	StageClosedLost  Stage = "Closed Lost"
)

var validStages = map[Stage]struct{}{
	StageDraft:       {},
	StageNegotiation: {},
	StageDelivered:   {},
	StageOnHold:      {},
	StageConfirmed:   {},
	StageClosedWon:   {},
	StageClosedLost:  {},
}

// ParseStage validates a client-supplied stage name.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if _, ok := validStages[stage]; !ok {
		return "", fmt.Errorf("%w: invalid quote stage", httpx.ErrValidation)
	}
	return stage, nil
}

// Terminal reports whether the stage models no outgoing transitions.
func (s Stage) Terminal() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// ValidateTransition applies the single attachment/stage coupling rule in
// one atomic check.
func ValidateTransition(target Stage, attachment *Attachment) error {
	if target == StageConfirmed {
		if attachment == nil {
			return fmt.Errorf("%w: Purchase Order is required to confirm quote", httpx.ErrValidation)
		}
		return nil
	}
	if attachment != nil {
		return fmt.Errorf("%w: Purchase Order can only be uploaded when confirming the quote", httpx.ErrValidation)
	}
	return nil
}
