package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/auth"
)

type OAuthHandler struct {
	oauthService *auth.OAuthService
}

func NewOAuthHandler(oauthService *auth.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// Login exchanges a provider access token for a local session, creating or
// merging the account behind the provider's email.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.ProviderLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	resp, err := h.oauthService.LoginWithProvider(r.Context(), req.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidProviderToken) {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid provider token"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		return
	}

	setSessionCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, authResponseDTO(resp))
}
