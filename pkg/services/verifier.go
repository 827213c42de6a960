package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/config"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/landregistry"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/normalize"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/workers"
)

// VerificationService runs Stage 2: targeted, paid verification of
// suspicious matches against the Land Registry ownership API.
type VerificationService interface {
	VerifyMatches(ctx context.Context, matchIDs []uuid.UUID) (*VerificationSummary, error)
	GetStatus(ctx context.Context, matchID uuid.UUID) (*models.FraudMatch, error)
}

// VerificationResult is the outcome for one requested match id.
type VerificationResult struct {
	MatchID           uuid.UUID                 `json:"match_id"`
	Status            models.VerificationStatus `json:"status"`
	VerifiedOwnerName string                    `json:"verified_owner_name,omitempty"`
	NameSimilarity    float64                   `json:"name_similarity,omitempty"`
	ErrorMessage      string                    `json:"error_message,omitempty"`

	// AlreadyTerminal marks an idempotent no-op: the match had been
	// verified before, no external lookup was made.
	AlreadyTerminal bool `json:"already_terminal,omitempty"`
}

// VerificationSummary reports one Stage-2 run.
type VerificationSummary struct {
	TotalRequested int                  `json:"total_requested"`
	ConfirmedFraud int                  `json:"confirmed_fraud_count"`
	NotFraud       int                  `json:"not_fraud_count"`
	ErrorCount     int                  `json:"error_count"`
	Skipped        int                  `json:"skipped_count"`
	Results        []VerificationResult `json:"results"`
}

type verificationService struct {
	matches  repositories.MatchRepository
	listings repositories.ListingRepository
	verifier landregistry.OwnershipVerifier
	pool     *workers.Pool
	cfg      config.ScoringConfig
	logger   *zap.Logger
}

// NewVerificationService creates a new Stage-2 verification service.
func NewVerificationService(
	matches repositories.MatchRepository,
	listings repositories.ListingRepository,
	verifier landregistry.OwnershipVerifier,
	pool *workers.Pool,
	cfg config.ScoringConfig,
	logger *zap.Logger,
) VerificationService {
	return &verificationService{
		matches:  matches,
		listings: listings,
		verifier: verifier,
		pool:     pool,
		cfg:      cfg,
		logger:   logger.Named("verifier"),
	}
}

// VerifyMatches verifies the requested matches concurrently with bounded
// fan-out. Every requested id yields exactly one result: lookup failures
// become terminal "error" outcomes and never abort the rest of the batch;
// already-terminal matches are returned as-is without an external call.
// Results are ordered to mirror matchIDs.
func (s *verificationService) VerifyMatches(ctx context.Context, matchIDs []uuid.UUID) (*VerificationSummary, error) {
	items := make([]workers.Item[VerificationResult], 0, len(matchIDs))
	for _, id := range matchIDs {
		matchID := id
		items = append(items, workers.Item[VerificationResult]{
			ID: matchID.String(),
			Execute: func(ctx context.Context) (VerificationResult, error) {
				return s.verifyOne(ctx, matchID), nil
			},
		})
	}

	completed := workers.Process(ctx, s.pool, items)

	byID := make(map[string]VerificationResult, len(completed))
	for _, r := range completed {
		if r.Err != nil {
			// The pool gave up on this item, typically on context
			// cancellation. The id still gets a full error result.
			matchID, _ := uuid.Parse(r.ID)
			byID[r.ID] = VerificationResult{
				MatchID:      matchID,
				Status:       models.StatusError,
				ErrorMessage: r.Err.Error(),
			}
			continue
		}
		byID[r.ID] = r.Result
	}

	summary := &VerificationSummary{TotalRequested: len(matchIDs)}
	for _, id := range matchIDs {
		result := byID[id.String()]
		summary.Results = append(summary.Results, result)

		switch {
		case result.AlreadyTerminal:
			summary.Skipped++
		case result.Status == models.StatusConfirmedFraud:
			summary.ConfirmedFraud++
		case result.Status == models.StatusNotFraud:
			summary.NotFraud++
		default:
			summary.ErrorCount++
		}
	}

	s.logger.Info("Stage 2 verification complete",
		zap.Int("requested", summary.TotalRequested),
		zap.Int("confirmed_fraud", summary.ConfirmedFraud),
		zap.Int("not_fraud", summary.NotFraud),
		zap.Int("errors", summary.ErrorCount),
		zap.Int("skipped", summary.Skipped))

	return summary, nil
}

// verifyOne applies the match state machine to a single id. Every failure
// mode maps to a result, never a panic or batch abort.
func (s *verificationService) verifyOne(ctx context.Context, matchID uuid.UUID) VerificationResult {
	result := VerificationResult{MatchID: matchID}

	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		result.Status = models.StatusError
		if errors.Is(err, apperrors.ErrNotFound) {
			result.ErrorMessage = "match not found"
		} else {
			result.ErrorMessage = fmt.Sprintf("load match: %v", err)
		}
		return result
	}

	// Terminal matches are idempotent no-ops: no lookup, status unchanged.
	if match.VerificationStatus.IsTerminal() {
		result.Status = match.VerificationStatus
		result.VerifiedOwnerName = match.VerifiedOwnerName
		result.ErrorMessage = match.ErrorMessage
		result.AlreadyTerminal = true
		return result
	}

	listing, err := s.listings.Get(ctx, match.ListingID)
	if err != nil {
		return s.complete(ctx, match, models.StatusError, "", fmt.Sprintf("load listing: %v", err))
	}

	owner, err := s.verifier.VerifyOwnership(ctx, match.PPDAddress, match.PPDPostcode)
	if err != nil {
		s.logger.Warn("Ownership lookup failed",
			zap.String("match_id", matchID.String()),
			zap.Error(err))
		return s.complete(ctx, match, models.StatusError, "", err.Error())
	}

	similarity := normalize.NameSimilarity(owner.OwnerName, listing.ClientName)
	target := models.StatusNotFraud
	if similarity >= s.cfg.OwnerNameSimilarityThreshold {
		target = models.StatusConfirmedFraud
	}

	s.logger.Info("Owner name compared",
		zap.String("match_id", matchID.String()),
		zap.Float64("similarity", similarity),
		zap.String("status", string(target)))

	completed := s.complete(ctx, match, target, owner.OwnerName, "")
	completed.NameSimilarity = similarity
	return completed
}

// complete performs the compare-and-set transition. When a concurrent
// verifier already finished this match, the winner's status is reported.
func (s *verificationService) complete(ctx context.Context, match *models.FraudMatch, status models.VerificationStatus, ownerName, errorMessage string) VerificationResult {
	result := VerificationResult{
		MatchID:           match.ID,
		Status:            status,
		VerifiedOwnerName: ownerName,
		ErrorMessage:      errorMessage,
	}

	updated, err := s.matches.CompleteVerification(ctx, match.ID, status, ownerName, errorMessage)
	if err != nil {
		result.Status = models.StatusError
		result.ErrorMessage = fmt.Sprintf("persist verification: %v", err)
		return result
	}
	if !updated {
		// Lost the race; report whatever the winner wrote.
		current, err := s.matches.Get(ctx, match.ID)
		if err != nil {
			result.Status = models.StatusError
			result.ErrorMessage = fmt.Sprintf("reload match after race: %v", err)
			return result
		}
		return VerificationResult{
			MatchID:           match.ID,
			Status:            current.VerificationStatus,
			VerifiedOwnerName: current.VerifiedOwnerName,
			ErrorMessage:      current.ErrorMessage,
			AlreadyTerminal:   true,
		}
	}

	return result
}

// GetStatus returns the current state of a match.
func (s *verificationService) GetStatus(ctx context.Context, matchID uuid.UUID) (*models.FraudMatch, error) {
	return s.matches.Get(ctx, matchID)
}
