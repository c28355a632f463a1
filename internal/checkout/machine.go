package checkout

import (
	"strconv"
	"strings"
)

type EventKind int

const (
	// diner actions
	EventSubmitAddress EventKind = iota + 1
	EventResendOtp
	EventSubmitOtp
	EventConfirmOrder
	EventCancel

	// server results
	EventOtpIssued
	EventOtpIssueFailed
	EventOtpVerified
	EventOtpRejected
	EventOrderPlaced
	EventOrderFailed
)

type Event struct {
	Kind    EventKind
	Address string
	Code    string
	Message string
	OrderID string
}

func (e Event) userInitiated() bool {
	return e.Kind >= EventSubmitAddress && e.Kind <= EventCancel
}

// answers reports which request a result event completes.
func (e Event) answers() Request {
	switch e.Kind {
	case EventOtpIssued, EventOtpIssueFailed:
		return RequestIssueOtp
	case EventOtpVerified, EventOtpRejected:
		return RequestVerifyOtp
	case EventOrderPlaced, EventOrderFailed:
		return RequestPlaceOrder
	}
	return RequestNone
}

// Effect is a server call the controller must make.
type Effect struct {
	Request Request
	Code    int
}

const (
	msgAddressRequired = "Add your address for delivery"
	msgOtpRequired     = "Enter the OTP sent to your email"
	msgOtpNotNumeric   = "The OTP is a number, check what you typed"
	msgVerifyFirst     = "Verify OTP first"
	msgSendingOtp      = "Sending OTP..."
	msgVerifyingOtp    = "Verifying OTP..."
	msgPlacingOrder    = "Placing order..."
	msgClosed          = "Checkout is closed"
	msgCancelled       = "Order cancelled"
	msgEmptyCart       = "Your cart is empty"
)

// Transition applies ev to s. It never performs I/O; server calls come back
// as effects and their outcomes re-enter as result events.
func Transition(s Session, ev Event) (Session, []Effect) {
	if !ev.userInitiated() {
		return applyResult(s, ev), nil
	}

	if s.State.Closed() {
		s.Status = failure(msgClosed)
		return s, nil
	}

	s.Status = Status{}

	if ev.Kind == EventCancel {
		s.State = Cancelled
		s.Pending = RequestNone
		s.Status = info(msgCancelled)
		return s, nil
	}

	if s.Pending != RequestNone {
		s.Status = info("Please wait, " + s.Pending.String() + " is in progress")
		return s, nil
	}

	switch ev.Kind {
	case EventSubmitAddress:
		return submitAddress(s, ev.Address)
	case EventResendOtp:
		return resendOtp(s)
	case EventSubmitOtp:
		return submitOtp(s, ev.Code)
	case EventConfirmOrder:
		return confirmOrder(s)
	}
	return s, nil
}

func submitAddress(s Session, address string) (Session, []Effect) {
	if s.State != AddressEntry {
		s.Status = failure("Delivery address is already set to " + s.Address)
		return s, nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		s.Status = failure(msgAddressRequired)
		return s, nil
	}
	s.Address = address
	s.State = AwaitingOtp
	return enterAwaitingOtp(s)
}

// enterAwaitingOtp is the entry action of AwaitingOtp: every entry, including
// a resend, asks for a fresh code.
func enterAwaitingOtp(s Session) (Session, []Effect) {
	s.Pending = RequestIssueOtp
	s.Status = info(msgSendingOtp)
	return s, []Effect{{Request: RequestIssueOtp}}
}

func resendOtp(s Session) (Session, []Effect) {
	switch s.State {
	case AwaitingOtp:
		return enterAwaitingOtp(s)
	case AddressEntry:
		s.Status = failure(msgAddressRequired)
	case Verified:
		s.Status = info("Email already verified")
	}
	return s, nil
}

func submitOtp(s Session, raw string) (Session, []Effect) {
	switch s.State {
	case AddressEntry:
		s.Status = failure(msgAddressRequired)
		return s, nil
	case Verified:
		s.Status = info("Email already verified")
		return s, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		s.Status = failure(msgOtpRequired)
		return s, nil
	}
	code, ok := parseCode(raw)
	if !ok {
		s.Status = failure(msgOtpNotNumeric)
		return s, nil
	}

	s.Pending = RequestVerifyOtp
	s.Status = info(msgVerifyingOtp)
	return s, []Effect{{Request: RequestVerifyOtp, Code: code}}
}

// parseCode accepts ASCII digits only: no sign, spaces or separators.
func parseCode(raw string) (int, bool) {
	if raw == "" || len(raw) > 9 {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	code, err := strconv.Atoi(raw)
	return code, err == nil
}

func confirmOrder(s Session) (Session, []Effect) {
	switch s.State {
	case AddressEntry:
		return submitAddress(s, s.Address)
	case AwaitingOtp:
		s.Status = failure(msgVerifyFirst)
		return s, nil
	}

	if len(s.Cart) == 0 {
		s.Status = failure(msgEmptyCart)
		return s, nil
	}
	if err := s.Cart.Validate(); err != nil {
		s.Status = failure(err.Error())
		return s, nil
	}
	s.Pending = RequestPlaceOrder
	s.Status = info(msgPlacingOrder)
	return s, []Effect{{Request: RequestPlaceOrder}}
}

// applyResult folds a server outcome into s. Outcomes for a request the
// session is no longer waiting on (for instance after Cancel) are dropped.
func applyResult(s Session, ev Event) Session {
	if s.State.Closed() || s.Pending == RequestNone || s.Pending != ev.answers() {
		return s
	}
	s.Pending = RequestNone

	switch ev.Kind {
	case EventOtpIssued:
		s.Status = info(ev.Message)
	case EventOtpVerified:
		s.State = Verified
		s.Status = success(ev.Message)
	case EventOrderPlaced:
		s.State = Placed
		s.OrderID = ev.OrderID
		s.Status = success(ev.Message)
	case EventOtpIssueFailed, EventOtpRejected, EventOrderFailed:
		s.Status = failure(ev.Message)
	}
	return s
}
