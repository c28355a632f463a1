package client

import (
	"context"
	"encoding/json"
	"errors"
	"food-checkout/internal/checkout"
	"food-checkout/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ checkout.API = (*Client)(nil)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_OtpRoundTrip(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		switch r.URL.Path {
		case "/api/createotp":
			writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to a@b.com"})
		case "/api/verifyotp":
			writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	msg, err := c.CreateOTP(context.Background(), "a@b.com", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent to a@b.com", msg)
	assert.Equal(t, "Ann", got["name"])

	msg, err = c.VerifyOTP(context.Background(), "a@b.com", 1234)
	require.NoError(t, err)
	assert.Equal(t, "OTP verified successfully", msg)
	assert.EqualValues(t, 1234, got["otp"])
}

func TestClient_PlaceOrder(t *testing.T) {
	id := uuid.New()
	var got domain.PlaceOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/placeorder", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, domain.PlaceOrderResult{Message: "Order placed", OrderID: id})
	}))
	defer srv.Close()

	cart := domain.Cart{
		{ID: "1", Name: "Pizza", UnitPrice: decimal.NewFromInt(200), Quantity: 2},
		{ID: "2", Name: "Soda", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	}
	res, err := New(srv.URL).PlaceOrder(context.Background(), domain.PlaceOrderRequest{
		Email: "a@b.com", Name: "Ann", Address: "221B Baker St", TotalCost: cart.Total(), Items: cart,
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.OrderID)
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(450)))
	assert.Len(t, got.Items, 2)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status   int
		body     any
		wantKind error
		wantMsg  string
	}{
		{status: http.StatusBadRequest, body: map[string]string{"message": "Email is required"}, wantKind: domain.ErrValidation, wantMsg: "Email is required"},
		{status: http.StatusUnauthorized, body: map[string]string{"message": "Incorrect OTP"}, wantKind: domain.ErrOtpMismatch, wantMsg: "Incorrect OTP"},
		{status: http.StatusForbidden, body: map[string]string{"message": "Verify OTP first"}, wantKind: domain.ErrUnverified, wantMsg: "Verify OTP first"},
		{status: http.StatusNotFound, body: map[string]string{"message": "No OTP"}, wantKind: domain.ErrOtpNotFound, wantMsg: "No OTP"},
		{status: http.StatusGone, body: map[string]string{"message": "OTP expired, request a new one"}, wantKind: domain.ErrOtpExpired, wantMsg: "OTP expired, request a new one"},
		{status: http.StatusBadGateway, body: map[string]string{"message": "Could not send"}, wantKind: domain.ErrDelivery, wantMsg: "Could not send"},
		{status: http.StatusInternalServerError, body: "oops", wantKind: ErrServer, wantMsg: "POST /api/verifyotp: status 500"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).VerifyOTP(context.Background(), "a@b.com", 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind))
			assert.Equal(t, tt.wantMsg, domain.Message(err, "fallback"))
		})
	}
}

func TestClient_NotFoundKindPerEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 page not found"})
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.CreateOTP(ctx, "a@b.com", "Ann")
	assert.ErrorIs(t, err, ErrServer)
	assert.NotErrorIs(t, err, domain.ErrOtpNotFound)

	_, err = c.PlaceOrder(ctx, domain.PlaceOrderRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrServer)
	assert.NotErrorIs(t, err, domain.ErrOtpNotFound)

	_, err = c.VerifyOTP(ctx, "a@b.com", 1)
	assert.ErrorIs(t, err, domain.ErrOtpNotFound)
}

func TestClient_Restaurant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "r1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Restaurant not found"})
			return
		}
		writeJSON(w, http.StatusOK, domain.Restaurant{
			ID:   "r1",
			Name: "Luigi's",
			Menu: []domain.MenuItem{{ID: "1", Name: "Pizza", Price: decimal.NewFromInt(200)}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	r, err := c.Restaurant(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Luigi's", r.Name)
	require.Len(t, r.Menu, 1)

	_, err = c.Restaurant(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRestaurantNotFound)
}

func TestClient_DrivesCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/createotp":
			writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
		case "/api/verifyotp":
			var body struct{ OTP int }
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.OTP != 1234 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Incorrect OTP"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully"})
		}
	}))
	defer srv.Close()

	ctl := checkout.NewController(New(srv.URL), checkout.Diner{Email: "a@b.com"}, nil)
	ctx := context.Background()
	ctl.SubmitAddress(ctx, "221B Baker St")

	s := ctl.SubmitOtp(ctx, "0000")
	assert.Equal(t, checkout.AwaitingOtp, s.State)
	assert.Equal(t, "Incorrect OTP", s.Status.Text)

	s = ctl.SubmitOtp(ctx, "1234")
	assert.Equal(t, checkout.Verified, s.State)
}
