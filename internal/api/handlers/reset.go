package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/auth"
)

type ResetHandler struct {
	resetService *auth.ResetService
}

func NewResetHandler(resetService *auth.ResetService) *ResetHandler {
	return &ResetHandler{resetService: resetService}
}

// Request always reports generic success for unknown emails so the endpoint
// can't be used to test which addresses have accounts. A broken or missing
// mail provider is the one distinguishable failure: no code reached anyone.
func (h *ResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.resetService.Request(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrDeliveryUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Password reset is temporarily unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Password reset failed"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "If the account exists, a reset code has been sent"})
}

func (h *ResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	valid, err := h.resetService.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Verification failed"})
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyResponse{Valid: valid})
}

func (h *ResetHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.resetService.Consume(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidOrExpiredCode) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired code"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Password reset failed"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password updated"})
}
