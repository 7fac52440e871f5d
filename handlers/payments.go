package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PaymentsHandler struct {
	// Payments is nil when no Stripe key is configured.
	Payments PaymentCreator
	Log      zerolog.Logger
}

// PaymentIntentRequest accepts the price as a JSON number or string.
type PaymentIntentRequest struct {
	Price decimal.Decimal `json:"price"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent opens a card payment for the subscription price and
// returns the client secret the browser confirms it with.
func (h *PaymentsHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if h.Payments == nil {
		fail(h.Log, w, r, apperr.Unavailable("payments are not configured"))
		return
	}
	var req PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	secret, err := h.Payments.CreateIntent(r.Context(), req.Price)
	if errors.Is(err, service.ErrAmountTooSmall) {
		fail(h.Log, w, r, apperr.Validation("price must be at least one cent"))
		return
	}
	if errors.Is(err, service.ErrPriceScale) {
		fail(h.Log, w, r, apperr.Validation("price has too many digits"))
		return
	}
	if errors.Is(err, service.ErrAmountTooLarge) {
		fail(h.Log, w, r, apperr.Validation("price is too large"))
		return
	}
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to create payment intent", err))
		return
	}
	writeJSON(w, http.StatusOK, PaymentIntentResponse{ClientSecret: secret})
}
