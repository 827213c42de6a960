package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
)

// VerificationStatus is the state of a fraud match in the two-stage
// pipeline. Stage 1 creates matches as StatusSuspicious; Stage 2 moves them
// to exactly one of the three terminal states.
type VerificationStatus string

const (
	StatusSuspicious     VerificationStatus = "suspicious"
	StatusConfirmedFraud VerificationStatus = "confirmed_fraud"
	StatusNotFraud       VerificationStatus = "not_fraud"
	StatusError          VerificationStatus = "error"
)

// IsTerminal reports whether s is a terminal verification state.
func (s VerificationStatus) IsTerminal() bool {
	switch s {
	case StatusConfirmedFraud, StatusNotFraud, StatusError:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition. Only suspicious → {confirmed_fraud, not_fraud, error} are
// allowed; terminal states never change.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	return s == StatusSuspicious && next.IsTerminal()
}

// CheckTransition returns ErrInvalidTransition when s → next is not legal.
func (s VerificationStatus) CheckTransition(next VerificationStatus) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, s, next)
	}
	return nil
}

// ScoreBreakdown holds the component scores behind a match's combined
// confidence score. All values are on a 0-100 scale.
type ScoreBreakdown struct {
	AddressSimilarity float64 `json:"address_similarity"`
	DateProximity     float64 `json:"date_proximity"`
	PostcodeMatch     float64 `json:"postcode_match"`
	Combined          float64 `json:"combined"`
}

// FraudMatch links a withdrawn listing to a PPD transaction with a computed
// confidence score. PPD fields are denormalized at detection time so Stage 2
// needs no access to the partitioned dataset. A match is never re-scored
// after creation.
type FraudMatch struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`

	// Denormalized PPD data
	PPDTransactionID uuid.UUID `json:"ppd_transaction_id"`
	PPDPrice         int64     `json:"ppd_price"`
	PPDTransferDate  time.Time `json:"ppd_transfer_date"`
	PPDPostcode      string    `json:"ppd_postcode"`
	PPDAddress       string    `json:"ppd_address"`

	ConfidenceScore   float64 `json:"confidence_score"`
	AddressSimilarity float64 `json:"address_similarity"`
	DateProximity     float64 `json:"date_proximity"`
	PostcodeMatch     float64 `json:"postcode_match"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	VerifiedOwnerName  string             `json:"verified_owner_name,omitempty"`
	ErrorMessage       string             `json:"error_message,omitempty"`

	DetectedAt time.Time  `json:"detected_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}
