package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
)

// mockListingRepository serves listings from memory.
type mockListingRepository struct {
	listings map[uuid.UUID]*models.PropertyListing
	getErr   error
	listErr  error
}

func newMockListingRepository() *mockListingRepository {
	return &mockListingRepository{listings: make(map[uuid.UUID]*models.PropertyListing)}
}

func (m *mockListingRepository) add(l *models.PropertyListing) *models.PropertyListing {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.listings[l.ID] = l
	return l
}

func (m *mockListingRepository) Create(ctx context.Context, listing *models.PropertyListing) error {
	m.add(listing)
	return nil
}

func (m *mockListingRepository) Get(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	listing, ok := m.listings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return listing, nil
}

func (m *mockListingRepository) GetWithdrawnByAgency(ctx context.Context, agencyID uuid.UUID) ([]*models.PropertyListing, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.PropertyListing
	for _, l := range m.listings {
		if l.AgencyID == agencyID && l.Status == models.ListingWithdrawn {
			out = append(out, l)
		}
	}
	return out, nil
}

// mockPricePaidIndex returns canned records per outward code and captures
// the queried windows.
type mockPricePaidIndex struct {
	records  map[string][]*models.PricePaidRecord
	queryErr error

	capturedPrefixes []string
	capturedFrom     []time.Time
	capturedTo       []time.Time
}

func newMockPricePaidIndex() *mockPricePaidIndex {
	return &mockPricePaidIndex{records: make(map[string][]*models.PricePaidRecord)}
}

func (m *mockPricePaidIndex) Query(ctx context.Context, postcodePrefix string, from, to time.Time) ([]*models.PricePaidRecord, error) {
	m.capturedPrefixes = append(m.capturedPrefixes, postcodePrefix)
	m.capturedFrom = append(m.capturedFrom, from)
	m.capturedTo = append(m.capturedTo, to)
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	// Honor the window like the real partitioned query would.
	var out []*models.PricePaidRecord
	for _, rec := range m.records[postcodePrefix] {
		if rec.TransferDate.Before(from) || rec.TransferDate.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// mockMatchRepository stores matches in memory with the same idempotence
// and compare-and-set semantics as the real table.
type mockMatchRepository struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*models.FraudMatch
	pairs   map[string]uuid.UUID

	createErr error
	getErr    error
}

func newMockMatchRepository() *mockMatchRepository {
	return &mockMatchRepository{
		matches: make(map[uuid.UUID]*models.FraudMatch),
		pairs:   make(map[string]uuid.UUID),
	}
}

func pairKey(listingID, ppdID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", listingID, ppdID)
}

func (m *mockMatchRepository) CreateIfAbsent(ctx context.Context, match *models.FraudMatch) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(match.ListingID, match.PPDTransactionID)
	if _, exists := m.pairs[key]; exists {
		return false, nil
	}
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.VerificationStatus == "" {
		match.VerificationStatus = models.StatusSuspicious
	}
	match.DetectedAt = time.Now().UTC()
	copied := *match
	m.matches[match.ID] = &copied
	m.pairs[key] = match.ID
	return true, nil
}

func (m *mockMatchRepository) Get(ctx context.Context, id uuid.UUID) (*models.FraudMatch, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

func (m *mockMatchRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID, status models.VerificationStatus) ([]*models.FraudMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FraudMatch
	for _, match := range m.matches {
		if status == "" || match.VerificationStatus == status {
			copied := *match
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockMatchRepository) CompleteVerification(ctx context.Context, id uuid.UUID, status models.VerificationStatus, ownerName, errorMessage string) (bool, error) {
	if err := models.StatusSuspicious.CheckTransition(status); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[id]
	if !ok || match.VerificationStatus != models.StatusSuspicious {
		return false, nil
	}
	now := time.Now().UTC()
	match.VerificationStatus = status
	match.VerifiedOwnerName = ownerName
	match.ErrorMessage = errorMessage
	match.VerifiedAt = &now
	return true, nil
}
