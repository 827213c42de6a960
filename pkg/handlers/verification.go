package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/services"
)

// VerifyRequest is the body for POST /api/verification/verify.
type VerifyRequest struct {
	MatchIDs []uuid.UUID `json:"match_ids"`
}

// VerificationHandler exposes Stage-2 ownership verification.
type VerificationHandler struct {
	verifier services.VerificationService
	logger   *zap.Logger
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(verifier services.VerificationService, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterRoutes registers the verification handler's routes on the given mux.
func (h *VerificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/verification/verify", h.Verify)
	mux.HandleFunc("GET /api/verification/status/{mid}", h.Status)
}

// Verify handles POST /api/verification/verify.
// Runs paid ownership lookups for the requested matches with bounded
// concurrency. Already-verified matches are reported unchanged.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if len(req.MatchIDs) == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "empty_batch", "At least one match ID is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	summary, err := h.verifier.VerifyMatches(r.Context(), req.MatchIDs)
	if err != nil {
		h.logger.Error("Verification run failed", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "verification_failed", "Verification run failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Status handles GET /api/verification/status/{mid}.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_match_id", "Invalid match ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	match, err := h.verifier.GetStatus(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Match not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get match",
			zap.String("match_id", matchID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get match"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, match); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
