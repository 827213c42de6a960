// Package repositories contains PostgreSQL data access for property-eye-backend.
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

// AgencyRepository defines the interface for agency data access.
type AgencyRepository interface {
	Create(ctx context.Context, agency *models.Agency) error
	Get(ctx context.Context, id uuid.UUID) (*models.Agency, error)
}

type agencyRepository struct {
	db *database.DB
}

// NewAgencyRepository creates a new agency repository.
func NewAgencyRepository(db *database.DB) AgencyRepository {
	return &agencyRepository{db: db}
}

func (r *agencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	if agency.ID == uuid.Nil {
		agency.ID = uuid.New()
	}
	agency.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO agencies (id, name, created_at)
		VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, agency.ID, agency.Name, agency.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agency: %w", err)
	}
	return nil
}

func (r *agencyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	query := `
		SELECT id, name, created_at
		FROM agencies
		WHERE id = $1`

	var agency models.Agency
	err := r.db.QueryRow(ctx, query, id).Scan(&agency.ID, &agency.Name, &agency.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	return &agency, nil
}
