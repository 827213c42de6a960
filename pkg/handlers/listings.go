package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/normalize"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
)

// ListingRecord is one listing in a bulk ingestion request.
type ListingRecord struct {
	Address       string     `json:"address"`
	Postcode      string     `json:"postcode"`
	ClientName    string     `json:"client_name"`
	Status        string     `json:"status"`
	WithdrawnDate *time.Time `json:"withdrawn_date,omitempty"`
}

// IngestListingsRequest is the body for POST /api/agencies/{aid}/listings.
type IngestListingsRequest struct {
	Listings []ListingRecord `json:"listings"`
}

// IngestError reports one rejected record by its position in the request.
type IngestError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestListingsResponse reports a bulk ingestion run. Valid records are
// stored even when others in the same batch fail.
type IngestListingsResponse struct {
	Created  int                       `json:"created"`
	Rejected int                       `json:"rejected"`
	Listings []*models.PropertyListing `json:"listings"`
	Errors   []IngestError             `json:"errors,omitempty"`
}

// ListingsHandler handles listing ingestion and retrieval.
type ListingsHandler struct {
	listings repositories.ListingRepository
	agencies repositories.AgencyRepository
	logger   *zap.Logger
}

// NewListingsHandler creates a new listings handler.
func NewListingsHandler(listings repositories.ListingRepository, agencies repositories.AgencyRepository, logger *zap.Logger) *ListingsHandler {
	return &ListingsHandler{
		listings: listings,
		agencies: agencies,
		logger:   logger,
	}
}

// RegisterRoutes registers the listings handler's routes on the given mux.
func (h *ListingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/agencies/{aid}/listings", h.Ingest)
	mux.HandleFunc("GET /api/listings/{lid}", h.Get)
}

// Ingest handles POST /api/agencies/{aid}/listings.
// Accepts a batch of listings; each record is validated independently and
// failures are reported per record without aborting the batch. Addresses
// are normalized at ingestion time.
func (h *ListingsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuid.Parse(r.PathValue("aid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_agency_id", "Invalid agency ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if _, err := h.agencies.Get(r.Context(), agencyID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Agency not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to load agency", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load agency"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req IngestListingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if len(req.Listings) == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "empty_batch", "At least one listing is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := IngestListingsResponse{}
	for i, record := range req.Listings {
		listing := &models.PropertyListing{
			AgencyID:      agencyID,
			Address:       record.Address,
			Postcode:      record.Postcode,
			ClientName:    record.ClientName,
			Status:        record.Status,
			WithdrawnDate: record.WithdrawnDate,
		}

		if err := listing.Validate(); err != nil {
			response.Rejected++
			response.Errors = append(response.Errors, IngestError{Index: i, Reason: err.Error()})
			continue
		}

		norm := normalize.Normalize(listing.Address, listing.Postcode)
		listing.NormalizedAddress = norm.Address
		if norm.PostcodeValid {
			listing.Postcode = norm.Postcode
		}

		if err := h.listings.Create(r.Context(), listing); err != nil {
			h.logger.Error("Failed to store listing",
				zap.String("agency_id", agencyID.String()),
				zap.Int("index", i),
				zap.Error(err))
			response.Rejected++
			response.Errors = append(response.Errors, IngestError{Index: i, Reason: "failed to store listing"})
			continue
		}

		response.Created++
		response.Listings = append(response.Listings, listing)
	}

	h.logger.Info("Listings ingested",
		zap.String("agency_id", agencyID.String()),
		zap.Int("created", response.Created),
		zap.Int("rejected", response.Rejected))

	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/listings/{lid}.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(r.PathValue("lid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_listing_id", "Invalid listing ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	listing, err := h.listings.Get(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Listing not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get listing",
			zap.String("listing_id", listingID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get listing"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, listing); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
