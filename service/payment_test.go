package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	cents    int64
	currency string
	calls    int
	err      error
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, cents int64, currency string) (string, error) {
	f.calls++
	f.cents, f.currency = cents, currency
	if f.err != nil {
		return "", f.err
	}
	return "pi_123_secret_abc", nil
}

func TestToCents(t *testing.T) {
	cases := []struct {
		price string
		want  int64
		err   bool
	}{
		{"5.00", 500, false},
		{"0.01", 1, false},
		{"19.999", 1999, false},
		{"0.001", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"1000000", 0, true},
		{"1.00000000", 100, false},
		{"1e8", 0, true},
	}
	for _, tc := range cases {
		got, err := ToCents(decimal.RequireFromString(tc.price))
		if tc.err {
			assert.Error(t, err, tc.price)
			continue
		}
		require.NoError(t, err, tc.price)
		assert.Equal(t, tc.want, got, tc.price)
	}
}

func TestToCentsRejectsExtremeExponents(t *testing.T) {
	for _, price := range []string{"1e-300000000", "1e300000000", "5.000000000", "1e9"} {
		start := time.Now()
		_, err := ToCents(decimal.RequireFromString(price))
		assert.ErrorIs(t, err, ErrPriceScale, price)
		assert.Less(t, time.Since(start), 100*time.Millisecond, price)
	}
}

func TestCreateIntent(t *testing.T) {
	gw := &fakeGateway{}
	p := &Payments{Gateway: gw, Currency: "usd"}

	secret, err := p.CreateIntent(context.Background(), decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Equal(t, int64(500), gw.cents)
	assert.Equal(t, "usd", gw.currency)
}

func TestCreateIntentRejectsSubCentWithoutCallingGateway(t *testing.T) {
	gw := &fakeGateway{}
	p := &Payments{Gateway: gw, Currency: "usd"}

	_, err := p.CreateIntent(context.Background(), decimal.RequireFromString("0.001"))
	assert.ErrorIs(t, err, ErrAmountTooSmall)
	assert.Zero(t, gw.calls)
}

func TestCreateIntentWrapsGatewayError(t *testing.T) {
	cause := errors.New("card_declined")
	p := &Payments{Gateway: &fakeGateway{err: cause}, Currency: "usd"}

	_, err := p.CreateIntent(context.Background(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, cause)
}

func TestNewStripeGatewayRequiresKey(t *testing.T) {
	_, err := NewStripeGateway("")
	assert.Error(t, err)
}
