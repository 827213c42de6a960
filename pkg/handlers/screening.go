package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/services"
)

// ScreeningHandler exposes Stage-1 bulk screening.
type ScreeningHandler struct {
	screener services.ScreeningService
	logger   *zap.Logger
}

// NewScreeningHandler creates a new screening handler.
func NewScreeningHandler(screener services.ScreeningService, logger *zap.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		screener: screener,
		logger:   logger,
	}
}

// RegisterRoutes registers the screening handler's routes on the given mux.
func (h *ScreeningHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/agencies/{aid}/screen", h.Screen)
}

// Screen handles POST /api/agencies/{aid}/screen.
// Runs Stage-1 screening over all of the agency's withdrawn listings and
// returns the run summary. Safe to re-run; no duplicate matches are created.
func (h *ScreeningHandler) Screen(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuid.Parse(r.PathValue("aid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_agency_id", "Invalid agency ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	summary, err := h.screener.ScreenAgency(r.Context(), agencyID)
	if err != nil {
		h.logger.Error("Screening run failed",
			zap.String("agency_id", agencyID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "screening_failed", "Screening run failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
