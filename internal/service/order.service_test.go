package service

import (
	"context"
	"encoding/json"
	"food-checkout/internal/config"
	"food-checkout/internal/domain"
	"food-checkout/internal/metrics"
	"food-checkout/internal/repo"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	otp    *otpFixture
	svc    OrderService
	orders repo.OrderRepo
	outbox repo.OutboxRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	otp := newOtpFixture(t, 1234)
	db := newTestDB(t)
	f := &orderFixture{
		otp:    otp,
		orders: repo.NewOrderRepo(db),
		outbox: repo.NewOutboxRepo(db),
	}
	cfg := &config.Config{OrderTopic: "order-events", OTP: testOtpConfig}
	f.svc = NewOrderService(db, f.orders, otp.repo, f.outbox, cfg, metrics.NewNop(), zap.NewNop(),
		WithOrderClock(otp.clock.Now),
	)
	return f
}

func (f *orderFixture) verify(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.otp.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)
	_, err = f.otp.svc.Verify(ctx, email, 1234)
	require.NoError(t, err)
}

func pizzaAndSoda() domain.Cart {
	return domain.Cart{
		{ID: "1", Name: "Pizza", UnitPrice: decimal.NewFromInt(200), Quantity: 2},
		{ID: "2", Name: "Soda", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	}
}

func TestOrderService_PlaceOrderRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)

	res, err := f.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{
		Email:     email,
		Name:      "Ann",
		Address:   "221B Baker St",
		TotalCost: decimal.NewFromInt(10),
		Items:     pizzaAndSoda(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)

	order, err := f.svc.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, order.TotalCost.Equal(decimal.NewFromInt(450)), "got %s", order.TotalCost)
	assert.True(t, order.ClaimedTotal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "221B Baker St", order.Address)
	require.Len(t, order.Items, 2)
	assert.Equal(t, domain.ItemID("1"), order.Items[0].ID)
	assert.Equal(t, 2, order.Items[0].Quantity)
}

func TestOrderService_StoresAnyClaimedTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	for _, claimed := range []string{"1e15", "0.001", "-3"} {
		t.Run(claimed, func(t *testing.T) {
			email := uniqueEmail(t)
			f.verify(t, email)

			res, err := f.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{
				Email:     email,
				Address:   "221B Baker St",
				TotalCost: decimal.RequireFromString(claimed),
				Items:     pizzaAndSoda(),
			})
			require.NoError(t, err)

			order, err := f.svc.GetOrder(ctx, res.OrderID)
			require.NoError(t, err)
			require.NotNil(t, order)
			assert.True(t, order.TotalCost.Equal(decimal.NewFromInt(450)), "got %s", order.TotalCost)
			assert.True(t, order.ClaimedTotal.Equal(decimal.RequireFromString(claimed)), "got %s", order.ClaimedTotal)
		})
	}
}

func TestOrderService_WritesOutboxEvent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)

	res, err := f.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{
		Email: email, Address: "221B Baker St", TotalCost: decimal.NewFromInt(450), Items: pizzaAndSoda(),
	})
	require.NoError(t, err)

	pending, err := f.outbox.FetchPending(ctx, 1000)
	require.NoError(t, err)

	var found *domain.OrderPlacedEvent
	for _, rec := range pending {
		if rec.Key != res.OrderID.String() {
			continue
		}
		var ev domain.OrderPlacedEvent
		require.NoError(t, json.Unmarshal(rec.Payload, &ev))
		assert.Equal(t, "order-events", rec.Topic)
		found = &ev
	}
	require.NotNil(t, found)
	assert.Equal(t, email, found.Email)
	assert.True(t, found.TotalCost.Equal(decimal.NewFromInt(450)))
}

func TestOrderService_RequiresVerification(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	req := domain.PlaceOrderRequest{Address: "221B Baker St", Items: pizzaAndSoda()}

	// never issued
	req.Email = uniqueEmail(t)
	_, err := f.svc.PlaceOrder(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnverified)

	// issued but not verified
	req.Email = uniqueEmail(t)
	_, err = f.otp.svc.Issue(ctx, req.Email, "Ann")
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnverified)
}

func TestOrderService_SecondSubmitFails(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)
	req := domain.PlaceOrderRequest{Email: email, Address: "221B Baker St", Items: pizzaAndSoda()}

	_, err := f.svc.PlaceOrder(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnverified)

	orders, err := f.orders.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderService_ConcurrentSubmitsCreateOneOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)
	req := domain.PlaceOrderRequest{Email: email, Address: "221B Baker St", Items: pizzaAndSoda()}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(ctx, req)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrUnverified)
	}
	assert.Equal(t, 1, ok)

	orders, err := f.orders.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderService_VerificationWindow(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)

	f.otp.clock.Advance(testOtpConfig.VerifiedWindow + time.Second)

	_, err := f.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{Email: email, Address: "x", Items: pizzaAndSoda()})
	assert.ErrorIs(t, err, domain.ErrUnverified)
}

func TestOrderService_Validation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	email := uniqueEmail(t)
	f.verify(t, email)

	tests := []struct {
		name string
		req  domain.PlaceOrderRequest
	}{
		{name: "no items", req: domain.PlaceOrderRequest{Email: email, Address: "x"}},
		{name: "blank address", req: domain.PlaceOrderRequest{Email: email, Address: "  ", Items: pizzaAndSoda()}},
		{name: "bad email", req: domain.PlaceOrderRequest{Email: "nope", Address: "x", Items: pizzaAndSoda()}},
		{name: "zero quantity", req: domain.PlaceOrderRequest{Email: email, Address: "x", Items: domain.Cart{
			{ID: "1", Name: "Pizza", UnitPrice: decimal.NewFromInt(200)},
		}}},
		{name: "negative price", req: domain.PlaceOrderRequest{Email: email, Address: "x", Items: domain.Cart{
			{ID: "1", Name: "Pizza", UnitPrice: decimal.NewFromInt(-5), Quantity: 1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// validation failures leave the verification usable
	_, err := f.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{Email: email, Address: "x", Items: pizzaAndSoda()})
	assert.NoError(t, err)
}
