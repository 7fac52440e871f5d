package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/middleware"
	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/rs/zerolog"
)

type UsersHandler struct {
	Users UserStore
	Log   zerolog.Logger
}

type RegisterUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Photo string `json:"photo" validate:"omitempty,url"`
}

// RegisterUserResponse carries a null insertedId when the email was
// already registered.
type RegisterUserResponse struct {
	Message    string  `json:"message,omitempty"`
	InsertedID *string `json:"insertedId"`
}

type AdminStatusResponse struct {
	Admin bool `json:"admin"`
}

// ListUsers returns every registered user. Admin only.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to list users", err))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// AdminStatus reports whether the caller is an admin. Callers may only ask
// about themselves.
func (h *UsersHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !strings.EqualFold(email, middleware.EmailFromContext(r.Context())) {
		fail(h.Log, w, r, apperr.Forbidden("forbidden access"))
		return
	}
	user, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load user", err))
		return
	}
	writeJSON(w, http.StatusOK, AdminStatusResponse{Admin: user.IsAdmin()})
}

// RegisterUser records a user on first sign-in. Registering an existing
// email is not an error; it answers 200 with a null insertedId.
func (h *UsersHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		fail(h.Log, w, r, err)
		return
	}

	user := &models.User{Email: req.Email, Name: strings.TrimSpace(req.Name), Photo: req.Photo}
	id, err := h.Users.RegisterUser(r.Context(), user)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to register user", err))
		return
	}
	if id == nil {
		writeJSON(w, http.StatusOK, RegisterUserResponse{Message: "user already exists"})
		return
	}
	hex := id.Hex()
	h.Log.Info().Str("user_id", hex).Msg("User registered")
	writeJSON(w, http.StatusCreated, RegisterUserResponse{InsertedID: &hex})
}

// PromoteUser sets a user's role to admin and returns the user. Admin only.
func (h *UsersHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	found, err := h.Users.PromoteUser(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to promote user", err))
		return
	}
	if !found {
		fail(h.Log, w, r, apperr.NotFound("user not found"))
		return
	}
	h.Log.Info().
		Str("user_id", id.Hex()).
		Str("by", middleware.EmailFromContext(r.Context())).
		Msg("User promoted to admin")
	user, err := h.Users.UserByID(r.Context(), id)
	if err != nil || user == nil {
		fail(h.Log, w, r, apperr.Internal("failed to reload user", err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
