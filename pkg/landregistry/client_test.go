package landregistry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000, // don't throttle tests
	}, zap.NewNop())
}

func TestVerifyOwnership_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.URL.Query().Get("postcode"); got != "SW1A 1AA" {
			t.Errorf("unexpected postcode %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"owner_name": "J Smith"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.VerifyOwnership(context.Background(), "1 Parliament St", "SW1A 1AA")
	if err != nil {
		t.Fatalf("VerifyOwnership failed: %v", err)
	}
	if result.OwnerName != "J Smith" {
		t.Errorf("expected owner J Smith, got %q", result.OwnerName)
	}
}

func TestVerifyOwnership_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no title", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.VerifyOwnership(context.Background(), "1 Nowhere", "ZZ1 1ZZ")
	if !errors.Is(err, apperrors.ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure, got %v", err)
	}
}

func TestVerifyOwnership_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.VerifyOwnership(context.Background(), "1 High St", "GU34 1AB")
	if !IsLookupFailure(err) {
		t.Fatalf("expected lookup failure, got %v", err)
	}
}

func TestVerifyOwnership_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.VerifyOwnership(context.Background(), "1 High St", "GU34 1AB")
	if !errors.Is(err, apperrors.ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure, got %v", err)
	}
}

func TestVerifyOwnership_MissingOwnerName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"owner_name": ""}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.VerifyOwnership(context.Background(), "1 High St", "GU34 1AB")
	if !errors.Is(err, apperrors.ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure, got %v", err)
	}
}

func TestVerifyOwnership_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           20 * time.Millisecond,
		RequestsPerSecond: 1000,
	}, zap.NewNop())

	_, err := client.VerifyOwnership(context.Background(), "1 High St", "GU34 1AB")
	if !errors.Is(err, apperrors.ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure on timeout, got %v", err)
	}
}
