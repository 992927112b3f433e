package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vericred/internal/gateway"
)

func TestSign(t *testing.T) {
	body := []byte(`{"gst_number":"27ABCDE1234F1ZA"}`)

	t.Run("deterministic hex-lowercase output", func(t *testing.T) {
		first := gateway.Sign("sec_abc", "1700000000", body)
		second := gateway.Sign("sec_abc", "1700000000", body)
		assert.Equal(t, first, second)
		assert.Regexp(t, "^[0-9a-f]{64}$", first)
	})

	t.Run("timestamp is part of the signed input", func(t *testing.T) {
		assert.NotEqual(t,
			gateway.Sign("sec_abc", "1700000000", body),
			gateway.Sign("sec_abc", "1700000001", body),
		)
	})

	t.Run("secret is part of the signed input", func(t *testing.T) {
		assert.NotEqual(t,
			gateway.Sign("sec_abc", "1700000000", body),
			gateway.Sign("sec_abd", "1700000000", body),
		)
	})
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"gst_number":"27ABCDE1234F1ZA"}`)
	sig := gateway.Sign("sec_abc", "1700000000", body)

	t.Run("accepts a matching signature", func(t *testing.T) {
		assert.True(t, gateway.VerifySignature("sec_abc", "1700000000", body, sig))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		tampered := []byte(`{"gst_number":"27ABCDE1234F1ZB"}`)
		assert.False(t, gateway.VerifySignature("sec_abc", "1700000000", tampered, sig))
	})

	t.Run("rejects a replayed signature under a new timestamp", func(t *testing.T) {
		assert.False(t, gateway.VerifySignature("sec_abc", "1700000060", body, sig))
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		assert.False(t, gateway.VerifySignature("sec_abc", "1700000000", body, ""))
	})
}
