// Package landregistry provides the client for the external ownership-
// verification API used by Stage-2 verification.
package landregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
)

// OwnershipResult is the current registered proprietor for a property.
type OwnershipResult struct {
	OwnerName string `json:"owner_name"`
}

// OwnershipVerifier is the capability the verification service depends on.
// Implementations return an ErrLookupFailure-wrapped error for any failure
// mode (timeout, not-found, malformed response, HTTP error); callers treat
// all of them as a terminal "error" verification outcome.
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, address, postcode string) (*OwnershipResult, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client calls the Land Registry ownership-verification API over HTTP.
// Lookups are paid, so the client enforces a client-side rate limit; it
// never retries - retry policy belongs to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a new Land Registry client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger.Named("land-registry"),
	}
}

type ownershipResponse struct {
	OwnerName string `json:"owner_name"`
}

// VerifyOwnership fetches the current registered owner for the property at
// the given address and postcode.
func (c *Client) VerifyOwnership(ctx context.Context, address, postcode string) (*OwnershipResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", apperrors.ErrLookupFailure, err)
	}

	endpoint := fmt.Sprintf("%s/v1/ownership?address=%s&postcode=%s",
		c.baseURL, url.QueryEscape(address), url.QueryEscape(postcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperrors.ErrLookupFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers connection errors and client timeouts.
		c.logger.Warn("Ownership lookup request failed",
			zap.String("postcode", postcode),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLookupFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: no title found for %s", apperrors.ErrLookupFailure, postcode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limit exceeded", apperrors.ErrLookupFailure)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: authentication failed", apperrors.ErrLookupFailure)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: HTTP %d", apperrors.ErrLookupFailure, resp.StatusCode)
	}

	var body ownershipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", apperrors.ErrLookupFailure, err)
	}
	if strings.TrimSpace(body.OwnerName) == "" {
		return nil, fmt.Errorf("%w: response missing owner name", apperrors.ErrLookupFailure)
	}

	return &OwnershipResult{OwnerName: body.OwnerName}, nil
}

// IsLookupFailure reports whether err is a lookup failure.
func IsLookupFailure(err error) bool {
	return errors.Is(err, apperrors.ErrLookupFailure)
}
