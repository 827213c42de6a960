package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/config"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/normalize"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
)

// ScreeningService runs Stage 1: bulk, cost-free screening of an agency's
// withdrawn listings against the price-paid index.
type ScreeningService interface {
	ScreenAgency(ctx context.Context, agencyID uuid.UUID) (*ScreeningSummary, error)
}

// ScreeningError records a listing the screener could not process, with
// enough context to re-drive it.
type ScreeningError struct {
	ListingID uuid.UUID `json:"listing_id"`
	Reason    string    `json:"reason"`
}

// ScreeningSummary reports one Stage-1 run.
type ScreeningSummary struct {
	ListingsScreened int `json:"listings_screened"`
	ListingsSkipped  int `json:"listings_skipped"`
	MatchesCreated   int `json:"matches_created"`
	MatchesExisting  int `json:"matches_existing"`

	// HighConfidence counts created matches at or above the
	// high-confidence threshold, the usual shortlist for Stage 2.
	HighConfidence int `json:"high_confidence"`

	Matches []*models.FraudMatch `json:"matches"`
	Errors  []ScreeningError     `json:"errors,omitempty"`
}

type screeningService struct {
	listings repositories.ListingRepository
	index    repositories.PricePaidIndex
	matches  repositories.MatchRepository
	scorer   *MatchScorer
	cfg      config.ScoringConfig
	logger   *zap.Logger
}

// NewScreeningService creates a new Stage-1 screening service.
func NewScreeningService(
	listings repositories.ListingRepository,
	index repositories.PricePaidIndex,
	matches repositories.MatchRepository,
	scorer *MatchScorer,
	cfg config.ScoringConfig,
	logger *zap.Logger,
) ScreeningService {
	return &screeningService{
		listings: listings,
		index:    index,
		matches:  matches,
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger.Named("screener"),
	}
}

// ScreenAgency screens every withdrawn listing for the agency. One bad
// listing never aborts the batch: validation failures and index errors are
// collected per listing and screening continues. Idempotent: re-running on
// the same data creates no duplicate matches. This stage makes no external
// verification calls.
func (s *screeningService) ScreenAgency(ctx context.Context, agencyID uuid.UUID) (*ScreeningSummary, error) {
	withdrawn, err := s.listings.GetWithdrawnByAgency(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawn listings: %w", err)
	}

	summary := &ScreeningSummary{}

	for _, listing := range withdrawn {
		if err := listing.Validate(); err != nil {
			summary.ListingsSkipped++
			summary.Errors = append(summary.Errors, ScreeningError{
				ListingID: listing.ID,
				Reason:    err.Error(),
			})
			s.logger.Warn("Skipping invalid listing",
				zap.String("listing_id", listing.ID.String()),
				zap.Error(err))
			continue
		}

		norm := normalize.Normalize(listing.Address, listing.Postcode)
		if !norm.PostcodeValid {
			// Without an outward code there is no bounded index query.
			summary.ListingsSkipped++
			summary.Errors = append(summary.Errors, ScreeningError{
				ListingID: listing.ID,
				Reason:    "no usable postcode in listing or address text",
			})
			continue
		}

		from := *listing.WithdrawnDate
		to := from.AddDate(0, s.cfg.ScanWindowMonths, 0)

		records, err := s.index.Query(ctx, norm.Outward, from, to)
		if err != nil {
			summary.Errors = append(summary.Errors, ScreeningError{
				ListingID: listing.ID,
				Reason:    fmt.Sprintf("index query failed: %v", err),
			})
			s.logger.Error("Price-paid index query failed",
				zap.String("listing_id", listing.ID.String()),
				zap.String("outward", norm.Outward),
				zap.Error(err))
			continue
		}

		summary.ListingsScreened++

		for _, record := range records {
			breakdown, ok := s.scorer.Score(listing, record)
			if !ok || breakdown.Combined < s.cfg.MinConfidenceThreshold {
				continue
			}

			match := &models.FraudMatch{
				ListingID:          listing.ID,
				PPDTransactionID:   record.TransactionID,
				PPDPrice:           record.Price,
				PPDTransferDate:    record.TransferDate,
				PPDPostcode:        record.Postcode,
				PPDAddress:         record.Address,
				ConfidenceScore:    breakdown.Combined,
				AddressSimilarity:  breakdown.AddressSimilarity,
				DateProximity:      breakdown.DateProximity,
				PostcodeMatch:      breakdown.PostcodeMatch,
				VerificationStatus: models.StatusSuspicious,
			}

			created, err := s.matches.CreateIfAbsent(ctx, match)
			if err != nil {
				summary.Errors = append(summary.Errors, ScreeningError{
					ListingID: listing.ID,
					Reason:    fmt.Sprintf("persist match for record %s: %v", record.TransactionID, err),
				})
				continue
			}
			if created {
				summary.MatchesCreated++
				summary.Matches = append(summary.Matches, match)
				if breakdown.Combined >= s.cfg.HighConfidenceThreshold {
					summary.HighConfidence++
				}
			} else {
				summary.MatchesExisting++
			}
		}
	}

	s.logger.Info("Stage 1 screening complete",
		zap.String("agency_id", agencyID.String()),
		zap.Int("listings_screened", summary.ListingsScreened),
		zap.Int("listings_skipped", summary.ListingsSkipped),
		zap.Int("matches_created", summary.MatchesCreated),
		zap.Int("matches_existing", summary.MatchesExisting))

	return summary, nil
}
