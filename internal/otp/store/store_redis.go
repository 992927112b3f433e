package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vericred/internal/otp"
	"vericred/pkg/platform/sentinel"
)

// RedisStore keeps challenges in Redis: one hash per challenge plus a
// per-(channel, value) index ZSET scored by expiry, so "latest expiry wins"
// is a reverse range over the index. Verify and consume run as Lua scripts,
// which gives the single-winner guarantee without client-side locking.
type RedisStore struct {
	client *redis.Client
	// Challenges are retained past their 5-minute validity because the
	// evaluation path inspects verified challenges regardless of expiry.
	retention time.Duration
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, retention: 24 * time.Hour}
}

func indexKey(channel otp.Channel, value string) string {
	return fmt.Sprintf("otp:idx:%s:%s", channel, value)
}

const challengePrefix = "otp:ch:"

// verifyScript walks candidates latest-expiry first, picks the first active
// one, and either marks it verified or bumps its attempt counter.
// Returns {2, id} on match, {1, id} on code mismatch, {0, ""} when no
// candidate exists.
var verifyScript = redis.NewScript(`
local ids = redis.call('ZREVRANGEBYSCORE', KEYS[1], '+inf', '-inf')
for _, id in ipairs(ids) do
	local key = ARGV[1] .. id
	local vals = redis.call('HMGET', key, 'verified', 'consumed', 'code', 'expires_unix')
	if vals[1] == '0' and vals[2] == '0' and vals[4] and tonumber(vals[4]) > tonumber(ARGV[2]) then
		if vals[3] == ARGV[3] then
			redis.call('HSET', key, 'verified', '1')
			return {2, id}
		end
		redis.call('HINCRBY', key, 'attempt_count', 1)
		return {1, id}
	end
end
return {0, ''}
`)

// consumeScript flips the latest verified, unconsumed challenge to consumed.
// The script runs atomically, so concurrent consumers cannot both win.
var consumeScript = redis.NewScript(`
local ids = redis.call('ZREVRANGEBYSCORE', KEYS[1], '+inf', '-inf')
for _, id in ipairs(ids) do
	local key = ARGV[1] .. id
	local vals = redis.call('HMGET', key, 'verified', 'consumed')
	if vals[1] == '1' and vals[2] == '0' then
		redis.call('HSET', key, 'consumed', '1')
		return id
	end
end
return ''
`)

var latestVerifiedScript = redis.NewScript(`
local ids = redis.call('ZREVRANGEBYSCORE', KEYS[1], '+inf', '-inf')
for _, id in ipairs(ids) do
	local key = ARGV[1] .. id
	if redis.call('HGET', key, 'verified') == '1' then
		return id
	end
end
return ''
`)

func (s *RedisStore) Save(ctx context.Context, ch otp.Challenge) error {
	key := challengePrefix + ch.ID
	idx := indexKey(ch.Channel, ch.Value)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"id":            ch.ID,
		"channel":       string(ch.Channel),
		"value":         ch.Value,
		"code":          ch.Code,
		"issued_at":     ch.IssuedAt.UTC().Format(time.RFC3339Nano),
		"expires_at":    ch.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"expires_unix":  ch.ExpiresAt.Unix(),
		"attempt_count": ch.AttemptCount,
		"verified":      boolField(ch.Verified),
		"consumed":      boolField(ch.Consumed),
	})
	pipe.Expire(ctx, key, s.retention)
	pipe.ZAdd(ctx, idx, redis.Z{Score: float64(ch.ExpiresAt.Unix()), Member: ch.ID})
	pipe.Expire(ctx, idx, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) VerifyLatest(ctx context.Context, channel otp.Channel, value, code string, now time.Time) (otp.Challenge, error) {
	res, err := verifyScript.Run(ctx, s.client,
		[]string{indexKey(channel, value)},
		challengePrefix, now.Unix(), code,
	).Slice()
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("verify script: %w", err)
	}

	status, _ := res[0].(int64)
	switch status {
	case 0:
		return otp.Challenge{}, sentinel.ErrNotFound
	case 1:
		return otp.Challenge{}, sentinel.ErrMismatch
	}
	id, _ := res[1].(string)
	return s.load(ctx, id)
}

func (s *RedisStore) ConsumeLatest(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	id, err := consumeScript.Run(ctx, s.client,
		[]string{indexKey(channel, value)},
		challengePrefix,
	).Text()
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("consume script: %w", err)
	}
	if id == "" {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	return s.load(ctx, id)
}

func (s *RedisStore) LatestVerified(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	id, err := latestVerifiedScript.Run(ctx, s.client,
		[]string{indexKey(channel, value)},
		challengePrefix,
	).Text()
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("latest verified script: %w", err)
	}
	if id == "" {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	return s.load(ctx, id)
}

func (s *RedisStore) load(ctx context.Context, id string) (otp.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, challengePrefix+id).Result()
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	if len(fields) == 0 {
		return otp.Challenge{}, sentinel.ErrNotFound
	}

	issued, _ := time.Parse(time.RFC3339Nano, fields["issued_at"])
	expires, _ := time.Parse(time.RFC3339Nano, fields["expires_at"])
	attempts, _ := strconv.Atoi(fields["attempt_count"])
	return otp.Challenge{
		ID:           fields["id"],
		Channel:      otp.Channel(fields["channel"]),
		Value:        fields["value"],
		Code:         fields["code"],
		IssuedAt:     issued,
		ExpiresAt:    expires,
		AttemptCount: attempts,
		Verified:     fields["verified"] == "1",
		Consumed:     fields["consumed"] == "1",
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
