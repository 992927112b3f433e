package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxClockSkew bounds how far a signed timestamp may drift from server time
// in either direction.
const MaxClockSkew = 60 * time.Second

// Sign computes the hex-encoded HMAC-SHA256 of "<timestamp>." + body under
// the consumer's secret. The timestamp is the decimal Unix-seconds string
// exactly as sent in the X-TIMESTAMP header.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected HMAC for
// the given timestamp and body. Comparison is constant time.
func VerifySignature(secret, timestamp string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
