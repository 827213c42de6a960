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

// ListingRepository defines the interface for property listing data access.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.PropertyListing) error
	Get(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error)
	GetWithdrawnByAgency(ctx context.Context, agencyID uuid.UUID) ([]*models.PropertyListing, error)
}

type listingRepository struct {
	db *database.DB
}

// NewListingRepository creates a new listing repository.
func NewListingRepository(db *database.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.PropertyListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO property_listings
			(id, agency_id, address, normalized_address, postcode, client_name, status, withdrawn_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.AgencyID,
		listing.Address,
		listing.NormalizedAddress,
		listing.Postcode,
		listing.ClientName,
		listing.Status,
		listing.WithdrawnDate,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *listingRepository) Get(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error) {
	query := listingSelect + ` WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// GetWithdrawnByAgency returns the withdrawn listings for an agency, the
// only status Stage-1 screening operates on.
func (r *listingRepository) GetWithdrawnByAgency(ctx context.Context, agencyID uuid.UUID) ([]*models.PropertyListing, error) {
	query := listingSelect + ` WHERE agency_id = $1 AND status = $2`

	rows, err := r.db.Query(ctx, query, agencyID, models.ListingWithdrawn)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawn listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.PropertyListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return listings, nil
}

const listingSelect = `
	SELECT id, agency_id, address, normalized_address, postcode, client_name, status, withdrawn_date, created_at
	FROM property_listings`

func scanListing(row pgx.Row) (*models.PropertyListing, error) {
	var listing models.PropertyListing
	err := row.Scan(
		&listing.ID,
		&listing.AgencyID,
		&listing.Address,
		&listing.NormalizedAddress,
		&listing.Postcode,
		&listing.ClientName,
		&listing.Status,
		&listing.WithdrawnDate,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
