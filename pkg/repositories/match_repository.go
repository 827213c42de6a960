package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/database"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
)

// MatchRepository defines the interface for fraud match data access.
type MatchRepository interface {
	// CreateIfAbsent inserts a match unless one already exists for the same
	// (listing, PPD transaction) pair. Returns true when a row was created.
	CreateIfAbsent(ctx context.Context, match *models.FraudMatch) (bool, error)

	Get(ctx context.Context, id uuid.UUID) (*models.FraudMatch, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID, status models.VerificationStatus) ([]*models.FraudMatch, error)

	// CompleteVerification atomically moves a match from suspicious to the
	// given terminal status. Returns false without modifying anything when
	// the match was no longer suspicious (a concurrent verifier won).
	CompleteVerification(ctx context.Context, id uuid.UUID, status models.VerificationStatus, ownerName, errorMessage string) (bool, error)
}

type matchRepository struct {
	db *database.DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *database.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateIfAbsent(ctx context.Context, match *models.FraudMatch) (bool, error) {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.VerificationStatus == "" {
		match.VerificationStatus = models.StatusSuspicious
	}
	match.DetectedAt = time.Now().UTC()

	query := `
		INSERT INTO fraud_matches
			(id, listing_id, ppd_transaction_id, ppd_price, ppd_transfer_date, ppd_postcode, ppd_address,
			 confidence_score, address_similarity, date_proximity, postcode_match,
			 verification_status, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (listing_id, ppd_transaction_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		match.ID,
		match.ListingID,
		match.PPDTransactionID,
		match.PPDPrice,
		match.PPDTransferDate,
		match.PPDPostcode,
		match.PPDAddress,
		match.ConfidenceScore,
		match.AddressSimilarity,
		match.DateProximity,
		match.PostcodeMatch,
		match.VerificationStatus,
		match.DetectedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create fraud match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *matchRepository) Get(ctx context.Context, id uuid.UUID) (*models.FraudMatch, error) {
	query := matchSelect + ` WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fraud match: %w", err)
	}
	return match, nil
}

func (r *matchRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID, status models.VerificationStatus) ([]*models.FraudMatch, error) {
	query := matchSelect + `
		JOIN property_listings l ON l.id = m.listing_id
		WHERE l.agency_id = $1`
	args := []any{agencyID}

	if status != "" {
		query += ` AND m.verification_status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY m.confidence_score DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.FraudMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fraud match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fraud matches: %w", err)
	}
	return matches, nil
}

// CompleteVerification is a compare-and-set on verification_status: the
// update applies only while the row is still suspicious, so two concurrent
// verifiers can never write different terminal states to the same match.
func (r *matchRepository) CompleteVerification(ctx context.Context, id uuid.UUID, status models.VerificationStatus, ownerName, errorMessage string) (bool, error) {
	if err := models.StatusSuspicious.CheckTransition(status); err != nil {
		return false, err
	}

	query := `
		UPDATE fraud_matches
		SET verification_status = $2,
		    verified_owner_name = NULLIF($3, ''),
		    error_message = NULLIF($4, ''),
		    verified_at = now()
		WHERE id = $1 AND verification_status = $5`

	tag, err := r.db.Exec(ctx, query, id, status, ownerName, errorMessage, models.StatusSuspicious)
	if err != nil {
		return false, fmt.Errorf("failed to complete verification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const matchSelect = `
	SELECT m.id, m.listing_id, m.ppd_transaction_id, m.ppd_price, m.ppd_transfer_date, m.ppd_postcode, m.ppd_address,
	       m.confidence_score, m.address_similarity, m.date_proximity, m.postcode_match,
	       m.verification_status, COALESCE(m.verified_owner_name, ''), COALESCE(m.error_message, ''),
	       m.detected_at, m.verified_at
	FROM fraud_matches m`

func scanMatch(row pgx.Row) (*models.FraudMatch, error) {
	var match models.FraudMatch
	err := row.Scan(
		&match.ID,
		&match.ListingID,
		&match.PPDTransactionID,
		&match.PPDPrice,
		&match.PPDTransferDate,
		&match.PPDPostcode,
		&match.PPDAddress,
		&match.ConfidenceScore,
		&match.AddressSimilarity,
		&match.DateProximity,
		&match.PostcodeMatch,
		&match.VerificationStatus,
		&match.VerifiedOwnerName,
		&match.ErrorMessage,
		&match.DetectedAt,
		&match.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &match, nil
}
