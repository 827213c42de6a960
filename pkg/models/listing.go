package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
)

// Listing status values.
const (
	ListingActive    = "active"
	ListingSold      = "sold"
	ListingWithdrawn = "withdrawn"
)

// IsValidListingStatus reports whether s is a recognized listing status.
func IsValidListingStatus(s string) bool {
	switch s {
	case ListingActive, ListingSold, ListingWithdrawn:
		return true
	}
	return false
}

// PropertyListing is an agency-submitted property record. Listings are
// created on ingestion and immutable thereafter.
type PropertyListing struct {
	ID                uuid.UUID  `json:"id"`
	AgencyID          uuid.UUID  `json:"agency_id"`
	Address           string     `json:"address"`
	NormalizedAddress string     `json:"normalized_address"`
	Postcode          string     `json:"postcode"`
	ClientName        string     `json:"client_name"`
	Status            string     `json:"status"`
	WithdrawnDate     *time.Time `json:"withdrawn_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Validate checks the fields the matching pipeline depends on. Records
// failing validation are skipped by ingestion and screening, never inferred.
func (l *PropertyListing) Validate() error {
	if strings.TrimSpace(l.Address) == "" {
		return fmt.Errorf("%w: listing address is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(l.ClientName) == "" {
		return fmt.Errorf("%w: listing client_name is required", apperrors.ErrValidation)
	}
	if !IsValidListingStatus(l.Status) {
		return fmt.Errorf("%w: unknown listing status %q", apperrors.ErrValidation, l.Status)
	}
	if l.Status == ListingWithdrawn && l.WithdrawnDate == nil {
		return fmt.Errorf("%w: withdrawn listing requires withdrawn_date", apperrors.ErrValidation)
	}
	return nil
}
