package notify

import (
	"context"
	"fmt"
	"food-checkout/internal/config"
	"time"

	"github.com/wneessen/go-mail"
)

type smtpNotifier struct {
	client *mail.Client
	from   string
}

func NewSMTPNotifier(cfg config.SMTP) (Notifier, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &smtpNotifier{client: client, from: cfg.From}, nil
}

func (n *smtpNotifier) SendOTP(ctx context.Context, email, name string, code int, expiresAt time.Time) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return err
	}
	if err := msg.To(email); err != nil {
		return err
	}
	msg.Subject("Your order verification code")
	msg.SetBodyString(mail.TypeTextPlain, body(name, code, expiresAt))

	return n.client.DialAndSendWithContext(ctx, msg)
}
