package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vericred/internal/otp"
	"vericred/pkg/platform/sentinel"
)

func newChallenge(channel otp.Channel, value, code string, issued time.Time) otp.Challenge {
	return otp.Challenge{
		ID:        value + "-" + code,
		Channel:   channel,
		Value:     value,
		Code:      code,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(5 * time.Minute),
	}
}

func TestMemoryVerifyLatest(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("no candidate returns not found", func(t *testing.T) {
		s := NewMemory()
		_, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "123456", now)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("mismatch increments attempts on the latest candidate", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "111111", now)))

		_, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "222222", now)
		assert.ErrorIs(t, err, sentinel.ErrMismatch)

		ch, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "111111", now)
		require.NoError(t, err)
		assert.Equal(t, 1, ch.AttemptCount)
		assert.True(t, ch.Verified)
	})

	t.Run("expired candidates are ignored", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "111111", now.Add(-10*time.Minute))))

		_, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "111111", now)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("latest expiry wins among duplicates", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "111111", now.Add(-time.Minute))))
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "222222", now)))

		_, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "111111", now)
		assert.ErrorIs(t, err, sentinel.ErrMismatch)

		_, err = s.VerifyLatest(ctx, otp.ChannelPhone, "1", "222222", now)
		assert.NoError(t, err)
	})
}

func TestMemoryConsumeLatest(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("only verified challenges are consumable", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "111111", now)))

		_, err := s.ConsumeLatest(ctx, otp.ChannelPhone, "1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("concurrent consumers produce exactly one winner", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPhone, "1", "111111", now)))
		_, err := s.VerifyLatest(ctx, otp.ChannelPhone, "1", "111111", now)
		require.NoError(t, err)

		var wins, losses atomic.Int64
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ConsumeLatest(ctx, otp.ChannelPhone, "1")
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, sentinel.ErrNotFound):
					losses.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), wins.Load())
		assert.Equal(t, int64(15), losses.Load())
	})
}

func TestMemoryLatestVerified(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("includes consumed and expired challenges", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPrimaryID, "1", "111111", now.Add(-10*time.Minute))))
		_, err := s.VerifyLatest(ctx, otp.ChannelPrimaryID, "1", "111111", now.Add(-9*time.Minute))
		require.NoError(t, err)
		_, err = s.ConsumeLatest(ctx, otp.ChannelPrimaryID, "1")
		require.NoError(t, err)

		ch, err := s.LatestVerified(ctx, otp.ChannelPrimaryID, "1")
		require.NoError(t, err)
		assert.True(t, ch.Consumed)
	})

	t.Run("unverified challenges do not count", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Save(ctx, newChallenge(otp.ChannelPrimaryID, "2", "111111", now)))

		_, err := s.LatestVerified(ctx, otp.ChannelPrimaryID, "2")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
