//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vericred/internal/otp"
	otpstore "vericred/internal/otp/store"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *otpstore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = otpstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "otp_challenges"))
}

func (s *PostgresStoreSuite) save(channel otp.Channel, value, code string, issued time.Time) otp.Challenge {
	ch := otp.Challenge{
		ID:        uuid.NewString(),
		Channel:   channel,
		Value:     value,
		Code:      code,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(5 * time.Minute),
	}
	s.Require().NoError(s.store.Save(context.Background(), ch))
	return ch
}

func (s *PostgresStoreSuite) TestVerifyLatest() {
	ctx := context.Background()
	now := time.Now()

	s.Run("round trip", func() {
		s.save(otp.ChannelPhone, "9000000001", "123456", now)

		ch, err := s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000001", "123456", now)
		s.Require().NoError(err)
		s.True(ch.Verified)

		_, err = s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000001", "123456", now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("mismatch persists the attempt count", func() {
		s.save(otp.ChannelPhone, "9000000002", "123456", now)

		_, err := s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000002", "654321", now)
		s.ErrorIs(err, sentinel.ErrMismatch)

		ch, err := s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000002", "123456", now)
		s.Require().NoError(err)
		s.Equal(1, ch.AttemptCount)
	})

	s.Run("expired challenge is invisible", func() {
		s.save(otp.ChannelPhone, "9000000003", "123456", now.Add(-10*time.Minute))

		_, err := s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000003", "123456", now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestConsumeLatest() {
	ctx := context.Background()
	now := time.Now()

	s.Run("single winner under concurrency", func() {
		s.save(otp.ChannelPhone, "9000000004", "123456", now)
		_, err := s.store.VerifyLatest(ctx, otp.ChannelPhone, "9000000004", "123456", now)
		s.Require().NoError(err)

		var wins atomic.Int64
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.ConsumeLatest(ctx, otp.ChannelPhone, "9000000004"); err == nil {
					wins.Add(1)
				} else if !errors.Is(err, sentinel.ErrNotFound) {
					s.T().Errorf("unexpected consume error: %v", err)
				}
			}()
		}
		wg.Wait()
		s.Equal(int64(1), wins.Load())
	})
}

func (s *PostgresStoreSuite) TestLatestVerified() {
	ctx := context.Background()
	now := time.Now()

	s.save(otp.ChannelPrimaryID, "123456789012", "123456", now)
	_, err := s.store.VerifyLatest(ctx, otp.ChannelPrimaryID, "123456789012", "123456", now)
	s.Require().NoError(err)
	_, err = s.store.ConsumeLatest(ctx, otp.ChannelPrimaryID, "123456789012")
	s.Require().NoError(err)

	// Consumed challenges still prove possession for the evaluation path.
	ch, err := s.store.LatestVerified(ctx, otp.ChannelPrimaryID, "123456789012")
	s.Require().NoError(err)
	s.True(ch.Consumed)
}
