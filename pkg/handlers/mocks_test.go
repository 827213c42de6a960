package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/services"
)

type mockAgencyRepo struct {
	agencies map[uuid.UUID]*models.Agency

	createErr error
	created   []*models.Agency
}

func newMockAgencyRepo() *mockAgencyRepo {
	return &mockAgencyRepo{agencies: make(map[uuid.UUID]*models.Agency)}
}

func (m *mockAgencyRepo) Create(ctx context.Context, agency *models.Agency) error {
	if m.createErr != nil {
		return m.createErr
	}
	if agency.ID == uuid.Nil {
		agency.ID = uuid.New()
	}
	m.agencies[agency.ID] = agency
	m.created = append(m.created, agency)
	return nil
}

func (m *mockAgencyRepo) Get(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	agency, ok := m.agencies[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return agency, nil
}

type mockListingRepo struct {
	listings map[uuid.UUID]*models.PropertyListing

	createErr error
	created   []*models.PropertyListing
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{listings: make(map[uuid.UUID]*models.PropertyListing)}
}

func (m *mockListingRepo) Create(ctx context.Context, listing *models.PropertyListing) error {
	if m.createErr != nil {
		return m.createErr
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	m.listings[listing.ID] = listing
	m.created = append(m.created, listing)
	return nil
}

func (m *mockListingRepo) Get(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return listing, nil
}

func (m *mockListingRepo) GetWithdrawnByAgency(ctx context.Context, agencyID uuid.UUID) ([]*models.PropertyListing, error) {
	var out []*models.PropertyListing
	for _, l := range m.listings {
		if l.AgencyID == agencyID && l.Status == models.ListingWithdrawn {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockMatchRepo struct {
	matches map[uuid.UUID]*models.FraudMatch

	listErr        error
	capturedAgency uuid.UUID
	capturedStatus models.VerificationStatus
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{matches: make(map[uuid.UUID]*models.FraudMatch)}
}

func (m *mockMatchRepo) CreateIfAbsent(ctx context.Context, match *models.FraudMatch) (bool, error) {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	m.matches[match.ID] = match
	return true, nil
}

func (m *mockMatchRepo) Get(ctx context.Context, id uuid.UUID) (*models.FraudMatch, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return match, nil
}

func (m *mockMatchRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID, status models.VerificationStatus) ([]*models.FraudMatch, error) {
	m.capturedAgency = agencyID
	m.capturedStatus = status
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.FraudMatch
	for _, match := range m.matches {
		if status == "" || match.VerificationStatus == status {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *mockMatchRepo) CompleteVerification(ctx context.Context, id uuid.UUID, status models.VerificationStatus, ownerName, errorMessage string) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.VerificationStatus != models.StatusSuspicious {
		return false, nil
	}
	match.VerificationStatus = status
	match.VerifiedOwnerName = ownerName
	match.ErrorMessage = errorMessage
	return true, nil
}

type mockScreeningService struct {
	summary *services.ScreeningSummary
	err     error

	capturedAgency uuid.UUID
}

func (m *mockScreeningService) ScreenAgency(ctx context.Context, agencyID uuid.UUID) (*services.ScreeningSummary, error) {
	m.capturedAgency = agencyID
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

type mockVerificationService struct {
	summary *services.VerificationSummary
	match   *models.FraudMatch
	err     error

	capturedIDs []uuid.UUID
}

func (m *mockVerificationService) VerifyMatches(ctx context.Context, matchIDs []uuid.UUID) (*services.VerificationSummary, error) {
	m.capturedIDs = matchIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockVerificationService) GetStatus(ctx context.Context, matchID uuid.UUID) (*models.FraudMatch, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.match == nil || m.match.ID != matchID {
		return nil, apperrors.ErrNotFound
	}
	return m.match, nil
}
