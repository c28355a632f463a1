package service

import (
	"context"
	"errors"
	"food-checkout/internal/config"
	"food-checkout/internal/domain"
	"food-checkout/internal/metrics"
	"food-checkout/internal/repo"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentCode struct {
	email string
	code  int
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *recordingNotifier) SendOTP(ctx context.Context, email, name string, code int, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentCode{email: email, code: code})
	return n.err
}

func sequence(codes ...int) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func(int) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

var testOtpConfig = config.OTP{TTL: 5 * time.Minute, Length: 4, VerifiedWindow: 15 * time.Minute}

type otpFixture struct {
	svc      OtpService
	repo     repo.OtpRepo
	notifier *recordingNotifier
	clock    *fakeClock
}

func newOtpFixture(t *testing.T, codes ...int) *otpFixture {
	db := newTestDB(t)
	f := &otpFixture{
		repo:     repo.NewOtpRepo(db),
		notifier: &recordingNotifier{},
		clock:    newFakeClock(),
	}
	f.svc = NewOtpService(db, f.repo, f.notifier, testOtpConfig, metrics.NewNop(), zap.NewNop(),
		WithCodeGenerator(sequence(codes...)),
		WithOtpClock(f.clock.Now),
	)
	return f
}

func TestOtpService_IssueAndVerifyOnce(t *testing.T) {
	f := newOtpFixture(t, 1234)
	ctx := context.Background()
	email := uniqueEmail(t)

	msg, err := f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)
	assert.Contains(t, msg, email)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, 1234, f.notifier.sent[0].code)

	_, err = f.svc.Verify(ctx, email, 1234)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.ErrorIs(t, err, domain.ErrOtpAlreadyConsumed)
}

func TestOtpService_ResendInvalidatesPrevious(t *testing.T) {
	f := newOtpFixture(t, 1234, 5678)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)
	f.clock.Advance(4 * time.Minute)
	_, err = f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.ErrorIs(t, err, domain.ErrOtpMismatch)

	// resend restarts the TTL window
	f.clock.Advance(4 * time.Minute)
	_, err = f.svc.Verify(ctx, email, 5678)
	assert.NoError(t, err)
}

func TestOtpService_ResendNeverRepeatsCode(t *testing.T) {
	f := newOtpFixture(t, 1234, 1234, 4321)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "")
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, email, "")
	require.NoError(t, err)

	rec, err := f.repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 4321, rec.Code)
}

func TestOtpService_WrongCodeDoesNotConsume(t *testing.T) {
	f := newOtpFixture(t, 1234)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, email, 0)
	assert.ErrorIs(t, err, domain.ErrOtpMismatch)

	rec, err := f.repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.False(t, rec.Consumed)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.NoError(t, err)
}

func TestOtpService_Expired(t *testing.T) {
	f := newOtpFixture(t, 1234)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)
	f.clock.Advance(5*time.Minute + time.Second)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.ErrorIs(t, err, domain.ErrOtpExpired)
}

func TestOtpService_NotFound(t *testing.T) {
	f := newOtpFixture(t, 1234)

	_, err := f.svc.Verify(context.Background(), uniqueEmail(t), 1234)
	assert.ErrorIs(t, err, domain.ErrOtpNotFound)
}

func TestOtpService_DeliveryFailureKeepsCode(t *testing.T) {
	f := newOtpFixture(t, 1234)
	f.notifier.err = errors.New("smtp timeout")
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "Ann")
	assert.ErrorIs(t, err, domain.ErrDelivery)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.NoError(t, err)
}

func TestOtpService_NormalizesEmail(t *testing.T) {
	f := newOtpFixture(t, 1234)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, "  "+strings.ToUpper(email)+" ", "Ann")
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, email, 1234)
	assert.NoError(t, err)
}

func TestOtpService_ConcurrentVerifySucceedsOnce(t *testing.T) {
	f := newOtpFixture(t, 1234)
	ctx := context.Background()
	email := uniqueEmail(t)

	_, err := f.svc.Issue(ctx, email, "Ann")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Verify(ctx, email, 1234); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestOtpService_ResendRacingVerify(t *testing.T) {
	f := newOtpFixture(t, 1111, 2222)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		email := uniqueEmail(t)
		_, err := f.svc.Issue(ctx, email, "Ann")
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			issueErr  error
			verifyErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, issueErr = f.svc.Issue(ctx, email, "Ann")
		}()
		go func() {
			defer wg.Done()
			_, verifyErr = f.svc.Verify(ctx, email, 1111)
		}()
		wg.Wait()
		require.NoError(t, issueErr)

		// verify either consumed the old row before it was replaced, or it
		// saw only the new one
		if verifyErr != nil {
			assert.ErrorIs(t, verifyErr, domain.ErrOtpMismatch)
		}

		rec, err := f.repo.FindByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 2222, rec.Code)
		assert.False(t, rec.Consumed, "the resent code must still be usable")

		_, err = f.svc.Verify(ctx, email, 2222)
		assert.NoError(t, err)
	}
}
