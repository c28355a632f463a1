package repo

import (
	"context"
	"database/sql"
	"food-checkout/internal/domain"
	"time"
)

type OtpRepo interface {
	// Upsert replaces whatever record the email had, resetting consumption.
	Upsert(ctx context.Context, rec *domain.OtpRecord) error
	FindByEmail(ctx context.Context, email string) (*domain.OtpRecord, error)
	// FindForUpdate row-locks the email's record until tx ends.
	FindForUpdate(ctx context.Context, tx *sql.Tx, email string) (*domain.OtpRecord, error)
	MarkConsumed(ctx context.Context, tx *sql.Tx, rec *domain.OtpRecord) error
	MarkRedeemed(ctx context.Context, tx *sql.Tx, email string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time, verifiedWindow time.Duration) (int64, error)
}

type otpRepo struct {
	db *sql.DB
}

func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

const otpColumns = `email, code, created_at, expires_at, consumed, verified_at, redeemed_at`

func (r *otpRepo) Upsert(ctx context.Context, rec *domain.OtpRecord) error {
	query := `
		INSERT INTO otps (email, code, created_at, expires_at, consumed, verified_at, redeemed_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL, NULL)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    consumed = FALSE,
		    verified_at = NULL,
		    redeemed_at = NULL
	`
	_, err := r.db.ExecContext(ctx, query, rec.Email, rec.Code, rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (r *otpRepo) FindByEmail(ctx context.Context, email string) (*domain.OtpRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+otpColumns+" FROM otps WHERE email = $1", email)
	return scanOtp(row)
}

func (r *otpRepo) FindForUpdate(ctx context.Context, tx *sql.Tx, email string) (*domain.OtpRecord, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+otpColumns+" FROM otps WHERE email = $1 FOR UPDATE", email)
	return scanOtp(row)
}

func (r *otpRepo) MarkConsumed(ctx context.Context, tx *sql.Tx, rec *domain.OtpRecord) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE otps SET consumed = TRUE, verified_at = $2 WHERE email = $1 AND consumed = FALSE",
		rec.Email, rec.VerifiedAt,
	)
	return err
}

func (r *otpRepo) MarkRedeemed(ctx context.Context, tx *sql.Tx, email string, at time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE otps SET redeemed_at = $2 WHERE email = $1", email, at)
	return err
}

func (r *otpRepo) DeleteExpired(ctx context.Context, now time.Time, verifiedWindow time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otps
		WHERE (consumed = FALSE AND expires_at < $1)
		   OR (consumed = TRUE AND verified_at < $2)
	`, now, now.Add(-verifiedWindow))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanOtp(row *sql.Row) (*domain.OtpRecord, error) {
	var rec domain.OtpRecord
	err := row.Scan(
		&rec.Email,
		&rec.Code,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.Consumed,
		&rec.VerifiedAt,
		&rec.RedeemedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
