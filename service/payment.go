package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var (
	ErrAmountTooSmall = errors.New("price must be at least 0.01")
	ErrAmountTooLarge = errors.New("price exceeds the maximum charge")
	ErrPriceScale     = errors.New("price has too many digits")
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(99999999)
)

// Arithmetic and comparisons rescale to the smaller exponent, so a price like
// 1e-300000000 would expand to a huge integer. Exponents outside this window
// are refused before any of that happens.
const (
	minPriceExponent = -8
	maxPriceExponent = 8
)

// ToCents converts a price in major units to minor units, truncating any
// fraction of a cent. Anything under one cent is rejected.
func ToCents(price decimal.Decimal) (int64, error) {
	if e := price.Exponent(); e < minPriceExponent || e > maxPriceExponent {
		return 0, fmt.Errorf("%w: exponent %d", ErrPriceScale, e)
	}
	cents := price.Mul(hundred).Truncate(0)
	if cents.LessThan(decimal.NewFromInt(1)) {
		return 0, ErrAmountTooSmall
	}
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrAmountTooLarge, price.String())
	}
	return cents.IntPart(), nil
}

// PaymentGateway creates payment intents with a hosted processor.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (clientSecret string, err error)
}

// Payments turns a price into a gateway payment intent. Nothing is
// recorded locally.
type Payments struct {
	Gateway  PaymentGateway
	Currency string
}

func (p *Payments) CreateIntent(ctx context.Context, price decimal.Decimal) (string, error) {
	cents, err := ToCents(price)
	if err != nil {
		return "", err
	}
	secret, err := p.Gateway.CreatePaymentIntent(ctx, cents, p.Currency)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return secret, nil
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	return &StripeGateway{api: client.New(secretKey, nil)}, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}
