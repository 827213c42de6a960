package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
)

// CreateAgencyRequest is the body for POST /api/agencies.
type CreateAgencyRequest struct {
	Name string `json:"name"`
}

// AgenciesHandler handles agency CRUD and the match-listing endpoint.
type AgenciesHandler struct {
	agencies repositories.AgencyRepository
	matches  repositories.MatchRepository
	logger   *zap.Logger
}

// NewAgenciesHandler creates a new agencies handler.
func NewAgenciesHandler(agencies repositories.AgencyRepository, matches repositories.MatchRepository, logger *zap.Logger) *AgenciesHandler {
	return &AgenciesHandler{
		agencies: agencies,
		matches:  matches,
		logger:   logger,
	}
}

// RegisterRoutes registers the agencies handler's routes on the given mux.
func (h *AgenciesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/agencies", h.Create)
	mux.HandleFunc("GET /api/agencies/{aid}", h.Get)
	mux.HandleFunc("GET /api/agencies/{aid}/matches", h.ListMatches)
}

// Create handles POST /api/agencies.
func (h *AgenciesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_name", "Agency name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	agency := &models.Agency{Name: strings.TrimSpace(req.Name)}
	if err := h.agencies.Create(r.Context(), agency); err != nil {
		h.logger.Error("Failed to create agency", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create agency"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, agency); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/agencies/{aid}.
func (h *AgenciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuid.Parse(r.PathValue("aid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_agency_id", "Invalid agency ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	agency, err := h.agencies.Get(r.Context(), agencyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Agency not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get agency",
			zap.String("agency_id", agencyID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get agency"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, agency); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListMatches handles GET /api/agencies/{aid}/matches.
// An optional ?status= query filters by verification status. Matches are
// ordered by confidence score, highest first.
func (h *AgenciesHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuid.Parse(r.PathValue("aid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_agency_id", "Invalid agency ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	status := models.VerificationStatus(r.URL.Query().Get("status"))
	if status != "" && status != models.StatusSuspicious && !status.IsTerminal() {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_status", "Unknown verification status"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	matches, err := h.matches.ListByAgency(r.Context(), agencyID, status)
	if err != nil {
		h.logger.Error("Failed to list matches",
			zap.String("agency_id", agencyID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list matches"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := map[string]interface{}{
		"agency_id": agencyID,
		"count":     len(matches),
		"matches":   matches,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
