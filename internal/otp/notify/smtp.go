package notify

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"vericred/internal/otp"
)

// SMTP delivers codes by email. The recipient address is resolved from the
// identity value by the injected lookup, since challenge values are identity
// numbers or phone numbers, not addresses.
type SMTP struct {
	dialer  *gomail.Dialer
	from    string
	resolve func(ctx context.Context, channel otp.Channel, value string) (string, error)
}

func NewSMTP(host string, port int, user, password, from string,
	resolve func(ctx context.Context, channel otp.Channel, value string) (string, error)) *SMTP {
	return &SMTP{
		dialer:  gomail.NewDialer(host, port, user, password),
		from:    from,
		resolve: resolve,
	}
}

func (s *SMTP) Send(ctx context.Context, channel otp.Channel, value, code string) error {
	to, err := s.resolve(ctx, channel, value)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", fmt.Sprintf("Your one-time verification code is %s. It expires in 5 minutes.", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}
