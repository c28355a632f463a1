// Package checkout sequences a diner's checkout: delivery address, email
// OTP, review and order submission.
//
// Transition is a pure function over Session values; Controller runs the
// effects it returns against the API and feeds the results back in.
package checkout

import "food-checkout/internal/domain"

type State int

const (
	AddressEntry State = iota
	AwaitingOtp
	Verified
	Placed
	Cancelled
)

func (s State) String() string {
	switch s {
	case AddressEntry:
		return "AddressEntry"
	case AwaitingOtp:
		return "AwaitingOtp"
	case Verified:
		return "Verified"
	case Placed:
		return "Placed"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Closed sessions accept no further events.
func (s State) Closed() bool {
	return s == Placed || s == Cancelled
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Status struct {
	Text     string
	Severity Severity
}

func info(text string) Status    { return Status{Text: text, Severity: SeverityInfo} }
func success(text string) Status { return Status{Text: text, Severity: SeveritySuccess} }
func failure(text string) Status { return Status{Text: text, Severity: SeverityError} }

// Diner is the signed-in identity the checkout runs for. Address is the
// profile address used to prefill the address step.
type Diner struct {
	Email   string
	Name    string
	Address string
}

// Request names a server call. At most one is in flight per session.
type Request int

const (
	RequestNone Request = iota
	RequestIssueOtp
	RequestVerifyOtp
	RequestPlaceOrder
)

func (r Request) String() string {
	switch r {
	case RequestIssueOtp:
		return "sending OTP"
	case RequestVerifyOtp:
		return "verifying OTP"
	case RequestPlaceOrder:
		return "placing order"
	}
	return "none"
}

type Session struct {
	Email       string
	DisplayName string
	// Address holds the draft until submitted, then the delivery address.
	Address string
	Cart    domain.Cart
	State   State
	Status  Status
	Pending Request
	OrderID string
}

func NewSession(d Diner, cart domain.Cart) Session {
	return Session{
		Email:       d.Email,
		DisplayName: d.Name,
		Address:     d.Address,
		Cart:        cart,
		State:       AddressEntry,
	}
}

// OrderRequest is what ConfirmOrder submits. TotalCost is the client's view;
// the server recomputes it.
func (s Session) OrderRequest() domain.PlaceOrderRequest {
	return domain.PlaceOrderRequest{
		Email:     s.Email,
		Name:      s.DisplayName,
		Address:   s.Address,
		TotalCost: s.Cart.Total(),
		Items:     s.Cart,
	}
}
