package otp_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vericred/internal/otp"
	otpstore "vericred/internal/otp/store"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/requestcontext"
)

// recordingDispatcher captures dispatched codes and can be told to fail.
type recordingDispatcher struct {
	sent []string
	fail bool
}

func (d *recordingDispatcher) Send(_ context.Context, _ otp.Channel, _ string, code string) error {
	if d.fail {
		return errors.New("provider down")
	}
	d.sent = append(d.sent, code)
	return nil
}

type OTPServiceSuite struct {
	suite.Suite
	store      *otpstore.InMemoryStore
	dispatcher *recordingDispatcher
	service    *otp.Service
}

func TestOTPServiceSuite(t *testing.T) {
	suite.Run(t, new(OTPServiceSuite))
}

func (s *OTPServiceSuite) SetupTest() {
	s.store = otpstore.NewMemory()
	s.dispatcher = &recordingDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = otp.NewService(s.store, s.dispatcher, logger, nil)
	s.Require().NoError(err)
}

func (s *OTPServiceSuite) TestNewService() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("nil store returns error", func() {
		_, err := otp.NewService(nil, s.dispatcher, logger, nil)
		s.Error(err)
	})

	s.Run("nil dispatcher returns error", func() {
		_, err := otp.NewService(s.store, nil, logger, nil)
		s.Error(err)
	})
}

func (s *OTPServiceSuite) TestIssue() {
	ctx := context.Background()

	s.Run("issues a six digit code in range", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9876543210")
		s.Require().NoError(err)

		s.Len(ch.Code, 6)
		n, convErr := strconv.Atoi(ch.Code)
		s.Require().NoError(convErr)
		s.GreaterOrEqual(n, 100000)
		s.LessOrEqual(n, 999999)
		s.Equal(ch.IssuedAt.Add(5*time.Minute), ch.ExpiresAt)
		s.False(ch.Verified)
		s.False(ch.Consumed)
	})

	s.Run("dispatches the stored code", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9876543211")
		s.Require().NoError(err)
		s.Contains(s.dispatcher.sent, ch.Code)
	})

	s.Run("dispatch failure does not fail the issue", func() {
		s.dispatcher.fail = true
		defer func() { s.dispatcher.fail = false }()

		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9876543212")
		s.NoError(err)

		// Challenge was stored despite the delivery failure.
		verifyErr := s.service.Verify(ctx, otp.ChannelPhone, "9876543212", ch.Code)
		s.NoError(verifyErr)
	})

	s.Run("empty value is rejected", func() {
		_, err := s.service.Issue(ctx, otp.ChannelPhone, "")
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *OTPServiceSuite) TestVerify() {
	ctx := context.Background()

	s.Run("round trip succeeds exactly once", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPrimaryID, "123456789012")
		s.Require().NoError(err)

		s.NoError(s.service.Verify(ctx, otp.ChannelPrimaryID, "123456789012", ch.Code))

		// The verified challenge is no longer an active candidate.
		err = s.service.Verify(ctx, otp.ChannelPrimaryID, "123456789012", ch.Code)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("wrong code is a mismatch and does not lock the challenge", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9000000001")
		s.Require().NoError(err)

		for range 5 {
			s.Error(s.service.Verify(ctx, otp.ChannelPhone, "9000000001", "000000"))
		}
		// Still verifiable after any number of wrong attempts.
		s.NoError(s.service.Verify(ctx, otp.ChannelPhone, "9000000001", ch.Code))
	})

	s.Run("expired challenge fails even with the correct code", func() {
		ctx := requestcontext.WithTime(context.Background(), time.Now())
		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9000000002")
		s.Require().NoError(err)

		late := requestcontext.WithTime(context.Background(), ch.ExpiresAt.Add(time.Second))
		err = s.service.Verify(late, otp.ChannelPhone, "9000000002", ch.Code)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("latest issue wins when duplicates exist", func() {
		base := time.Now()
		first, err := s.service.Issue(requestcontext.WithTime(ctx, base), otp.ChannelPhone, "9000000003")
		s.Require().NoError(err)
		second, err := s.service.Issue(requestcontext.WithTime(ctx, base.Add(time.Minute)), otp.ChannelPhone, "9000000003")
		s.Require().NoError(err)

		// The older code no longer matches; only the latest is authoritative.
		s.Error(s.service.Verify(ctx, otp.ChannelPhone, "9000000003", first.Code))
		s.NoError(s.service.Verify(ctx, otp.ChannelPhone, "9000000003", second.Code))
	})
}

func (s *OTPServiceSuite) TestConsume() {
	ctx := context.Background()

	s.Run("consumes a verified challenge once", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPhone, "9111111111")
		s.Require().NoError(err)
		s.Require().NoError(s.service.Verify(ctx, otp.ChannelPhone, "9111111111", ch.Code))

		consumed, err := s.service.Consume(ctx, otp.ChannelPhone, "9111111111")
		s.NoError(err)
		s.True(consumed.Verified)

		_, err = s.service.Consume(ctx, otp.ChannelPhone, "9111111111")
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("unverified challenge cannot be consumed", func() {
		_, err := s.service.Issue(ctx, otp.ChannelPhone, "9222222222")
		s.Require().NoError(err)

		_, err = s.service.Consume(ctx, otp.ChannelPhone, "9222222222")
		s.Error(err)
	})
}

func (s *OTPServiceSuite) TestHasVerified() {
	ctx := context.Background()

	s.Run("false when nothing was verified", func() {
		ok, err := s.service.HasVerified(ctx, otp.ChannelPrimaryID, "999988887777")
		s.NoError(err)
		s.False(ok)
	})

	s.Run("true even after the challenge was consumed", func() {
		ch, err := s.service.Issue(ctx, otp.ChannelPrimaryID, "111122223333")
		s.Require().NoError(err)
		s.Require().NoError(s.service.Verify(ctx, otp.ChannelPrimaryID, "111122223333", ch.Code))
		_, err = s.service.Consume(ctx, otp.ChannelPrimaryID, "111122223333")
		s.Require().NoError(err)

		ok, err := s.service.HasVerified(ctx, otp.ChannelPrimaryID, "111122223333")
		s.NoError(err)
		s.True(ok)
	})
}
