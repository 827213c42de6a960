package landregistry

import (
	"context"
	"sync"
)

// MockVerifier is a configurable OwnershipVerifier for tests. Safe for
// concurrent use, matching how the verification service fans out lookups.
type MockVerifier struct {
	// OwnerNames maps postcode to the owner name to return.
	OwnerNames map[string]string

	// Err is returned for every call when set.
	Err error

	mu    sync.Mutex
	calls []string
}

// VerifyOwnership implements OwnershipVerifier.
func (m *MockVerifier) VerifyOwnership(ctx context.Context, address, postcode string) (*OwnershipResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, postcode)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return &OwnershipResult{OwnerName: m.OwnerNames[postcode]}, nil
}

// Calls returns the postcodes looked up so far.
func (m *MockVerifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
