// Package notify delivers issued OTP codes. The dispatcher is chosen once at
// process start and injected; issuing code never consults ambient state to
// decide how to send.
package notify

import (
	"context"
	"log/slog"

	"vericred/internal/otp"
)

// Dispatcher sends a code to the holder of an identity value. Delivery is
// fire-and-forget from the issuing call's perspective: the challenge is
// stored before dispatch and a delivery failure never fails the issue.
type Dispatcher interface {
	Send(ctx context.Context, channel otp.Channel, value, code string) error
}

// Mock logs the code instead of delivering it. Default outside production.
type Mock struct {
	Logger *slog.Logger
}

func (m Mock) Send(ctx context.Context, channel otp.Channel, value, code string) error {
	m.Logger.InfoContext(ctx, "mock otp dispatch",
		"channel", channel,
		"value", value,
		"code", code,
	)
	return nil
}
