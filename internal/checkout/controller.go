package checkout

import (
	"context"
	"errors"
	"food-checkout/internal/domain"
	"sync"

	"go.uber.org/zap"
)

// API is the server surface the checkout needs.
type API interface {
	CreateOTP(ctx context.Context, email, name string) (string, error)
	VerifyOTP(ctx context.Context, email string, code int) (string, error)
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.PlaceOrderResult, error)
}

// Controller owns one Session. Methods may be called from several
// goroutines: the lock covers transitions only, server calls run outside it,
// and the session's pending marker turns overlapping actions into no-ops.
type Controller struct {
	api      API
	onChange func(Session)
	logger   *zap.Logger

	mu      sync.Mutex
	session Session
	abort   context.CancelFunc
}

type Option func(*Controller)

// WithObserver registers fn to receive every intermediate session, e.g. the
// AwaitingOtp step with "Sending OTP..." before the code request returns.
func WithObserver(fn func(Session)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(api API, diner Diner, cart domain.Cart, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		session:  NewSession(diner, cart),
		onChange: func(Session) {},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) SubmitAddress(ctx context.Context, address string) Session {
	return c.dispatch(ctx, Event{Kind: EventSubmitAddress, Address: address})
}

func (c *Controller) ResendOtp(ctx context.Context) Session {
	return c.dispatch(ctx, Event{Kind: EventResendOtp})
}

func (c *Controller) SubmitOtp(ctx context.Context, code string) Session {
	return c.dispatch(ctx, Event{Kind: EventSubmitOtp, Code: code})
}

func (c *Controller) ConfirmOrder(ctx context.Context) Session {
	return c.dispatch(ctx, Event{Kind: EventConfirmOrder})
}

// Cancel discards the session and abandons any in-flight request. A request
// that has not reached the API yet is never sent.
func (c *Controller) Cancel() Session {
	c.mu.Lock()
	next, _ := Transition(c.session, Event{Kind: EventCancel})
	c.session = next
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}
	c.mu.Unlock()

	c.onChange(next)
	return next
}

func (c *Controller) dispatch(ctx context.Context, ev Event) Session {
	c.mu.Lock()
	next, effects := Transition(c.session, ev)
	c.session = next
	// the abort hook is registered with the transition that sets Pending,
	// so a Cancel from the observer below always finds it
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if len(effects) > 0 {
		c.abort = cancel
	}
	c.mu.Unlock()

	c.onChange(next)

	for _, eff := range effects {
		result := c.run(reqCtx, eff)

		c.mu.Lock()
		next, _ = Transition(c.session, result)
		c.session = next
		c.abort = nil
		c.mu.Unlock()

		c.onChange(next)
	}
	return next
}

// run performs one effect and reports its outcome as a result event.
func (c *Controller) run(ctx context.Context, eff Effect) Event {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s.State.Closed() || ctx.Err() != nil {
		return failed(eff.Request, "Request cancelled")
	}

	switch eff.Request {
	case RequestIssueOtp:
		msg, err := c.api.CreateOTP(ctx, s.Email, s.DisplayName)
		if err != nil {
			return failed(eff.Request, c.message(err, "Failed to send OTP"))
		}
		return Event{Kind: EventOtpIssued, Message: msg}

	case RequestVerifyOtp:
		msg, err := c.api.VerifyOTP(ctx, s.Email, eff.Code)
		if err != nil {
			return failed(eff.Request, c.message(err, "OTP verification failed"))
		}
		return Event{Kind: EventOtpVerified, Message: msg}

	case RequestPlaceOrder:
		res, err := c.api.PlaceOrder(ctx, s.OrderRequest())
		if err != nil {
			return failed(eff.Request, c.message(err, "Failed to place order"))
		}
		return Event{Kind: EventOrderPlaced, Message: res.Message, OrderID: res.OrderID.String()}
	}
	return Event{}
}

func failed(req Request, msg string) Event {
	switch req {
	case RequestIssueOtp:
		return Event{Kind: EventOtpIssueFailed, Message: msg}
	case RequestVerifyOtp:
		return Event{Kind: EventOtpRejected, Message: msg}
	case RequestPlaceOrder:
		return Event{Kind: EventOrderFailed, Message: msg}
	}
	return Event{}
}

func (c *Controller) message(err error, fallback string) string {
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	c.logger.Debug("checkout request failed", zap.Error(err))
	return domain.Message(err, fallback)
}
