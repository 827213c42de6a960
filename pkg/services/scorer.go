// Package services contains the two-stage fraud-matching pipeline.
package services

import (
	"time"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/config"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/normalize"
)

// MatchScorer computes the weighted confidence score between a withdrawn
// listing and a PPD record. Pure: no I/O, no shared state.
type MatchScorer struct {
	cfg config.ScoringConfig
}

// NewMatchScorer creates a scorer. The config must already be validated.
func NewMatchScorer(cfg config.ScoringConfig) *MatchScorer {
	return &MatchScorer{cfg: cfg}
}

// Score computes the component and combined scores for a (listing, record)
// pair. ok is false when the pair is excluded from candidacy entirely:
// address similarity below the hard gate, a missing withdrawal date, or a
// transfer outside the scan window. An excluded pair carries no meaningful
// combined score and must not become a match.
func (s *MatchScorer) Score(listing *models.PropertyListing, record *models.PricePaidRecord) (models.ScoreBreakdown, bool) {
	var breakdown models.ScoreBreakdown

	if listing.WithdrawnDate == nil {
		return breakdown, false
	}

	listingAddr := normalize.Normalize(listing.Address, listing.Postcode)
	recordAddr := normalize.Normalize(record.Address, record.Postcode)

	breakdown.AddressSimilarity = normalize.Similarity(listingAddr.Address, recordAddr.Address)
	// Hard gate: below the minimum similarity the other components are
	// irrelevant, this is not a weighted penalty.
	if breakdown.AddressSimilarity < s.cfg.MinAddressSimilarity {
		return breakdown, false
	}

	proximity, ok := s.dateProximity(*listing.WithdrawnDate, record.TransferDate)
	if !ok {
		return breakdown, false
	}
	breakdown.DateProximity = proximity

	breakdown.PostcodeMatch = s.postcodeScore(listingAddr, recordAddr)

	combined := s.cfg.AddressWeight*breakdown.AddressSimilarity +
		s.cfg.DateWeight*breakdown.DateProximity +
		s.cfg.PostcodeWeight*breakdown.PostcodeMatch
	breakdown.Combined = clampScore(combined)

	return breakdown, true
}

// dateProximity scores how soon after withdrawal the sale completed:
// 100 on the withdrawal date, decaying linearly to 0 at the end of the scan
// window. Sales before withdrawal or beyond the window are not candidates
// at all, never scored zero.
func (s *MatchScorer) dateProximity(withdrawn, transfer time.Time) (float64, bool) {
	windowEnd := withdrawn.AddDate(0, s.cfg.ScanWindowMonths, 0)
	if transfer.Before(withdrawn) || transfer.After(windowEnd) {
		return 0, false
	}

	windowDays := windowEnd.Sub(withdrawn).Hours() / 24
	if windowDays <= 0 {
		return 0, false
	}
	gapDays := transfer.Sub(withdrawn).Hours() / 24

	return clampScore(100 * (1 - gapDays/windowDays)), true
}

// postcodeScore awards 100 for exact postcode agreement, the configured
// partial credit when only the outward code agrees, and 0 otherwise.
// An invalid postcode on either side scores 0: the address text carries
// the comparison.
func (s *MatchScorer) postcodeScore(a, b normalize.NormalizedAddress) float64 {
	if !a.PostcodeValid || !b.PostcodeValid {
		return 0
	}
	if a.Postcode == b.Postcode {
		return 100
	}
	if a.Outward == b.Outward {
		return s.cfg.OutwardCodeCredit
	}
	return 0
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
