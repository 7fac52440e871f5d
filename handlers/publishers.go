package handlers

import (
	"net/http"
	"strings"

	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/rs/zerolog"
)

type PublishersHandler struct {
	Publishers PublisherStore
	Log        zerolog.Logger
}

type CreatePublisherRequest struct {
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo" validate:"omitempty,url"`
}

// CreatePublisher adds a publisher. Admin only.
func (h *PublishersHandler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	var req CreatePublisherRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	id, err := h.Publishers.InsertPublisher(r.Context(), &models.Publisher{Name: req.Name, Logo: req.Logo})
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to create publisher", err))
		return
	}
	writeJSON(w, http.StatusCreated, InsertedResponse{InsertedID: id.Hex()})
}

func (h *PublishersHandler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	publishers, err := h.Publishers.ListPublishers(r.Context())
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to list publishers", err))
		return
	}
	if publishers == nil {
		publishers = []models.Publisher{}
	}
	writeJSON(w, http.StatusOK, publishers)
}
