package handlers

import (
	"net/http"
	"strings"

	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/rs/zerolog"
)

type TokenHandler struct {
	Tokens Tokens
	Log    zerolog.Logger
}

type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken signs the posted claims into a one-hour token. The claims must
// carry a non-empty email; identity itself is established by the client's
// identity provider before this call.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var claims map[string]any
	if err := decodeJSON(r, &claims); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		fail(h.Log, w, r, apperr.Validation("email is required"))
		return
	}
	claims["email"] = email

	token, err := h.Tokens.Issue(claims)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
