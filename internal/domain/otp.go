package domain

import "time"

// OtpRecord is the single code row kept per email. Issuing a new code
// overwrites the row, so an email never has two active codes.
type OtpRecord struct {
	Email      string
	Code       int
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Consumed   bool
	VerifiedAt *time.Time
	RedeemedAt *time.Time
}

func NewOtpRecord(email string, code int, now time.Time, ttl time.Duration) *OtpRecord {
	return &OtpRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (o *OtpRecord) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsActive reports whether the code can still be verified.
func (o *OtpRecord) IsActive(now time.Time) bool {
	return !o.Consumed && !o.IsExpired(now)
}

// Check validates a submitted code without mutating the record.
func (o *OtpRecord) Check(code int, now time.Time) error {
	switch {
	case o.Consumed:
		return Errorf(ErrOtpAlreadyConsumed, "No active OTP for %s, request a new one", o.Email)
	case o.IsExpired(now):
		return Errorf(ErrOtpExpired, "OTP expired, request a new one")
	case o.Code != code:
		return Errorf(ErrOtpMismatch, "Incorrect OTP")
	}
	return nil
}

func (o *OtpRecord) MarkConsumed(now time.Time) {
	o.Consumed = true
	o.VerifiedAt = &now
}

// CanAuthorizeOrder reports whether a verified code may still back an order
// placed at now. A code authorizes at most one order.
func (o *OtpRecord) CanAuthorizeOrder(now time.Time, window time.Duration) error {
	if !o.Consumed || o.VerifiedAt == nil {
		return Errorf(ErrUnverified, "verify the OTP sent to %s first", o.Email)
	}
	if o.RedeemedAt != nil {
		return Errorf(ErrUnverified, "this verification was already used for an order")
	}
	if now.Sub(*o.VerifiedAt) > window {
		return Errorf(ErrUnverified, "verification is too old, request a new OTP")
	}
	return nil
}
