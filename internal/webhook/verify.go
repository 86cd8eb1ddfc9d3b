package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// VerifySignature checks an HMAC-SHA256 signature against the raw request body.
//
// The signature must be computed over the exact body bytes as delivered; the
// caller must never re-serialize parsed JSON before verification, since
// byte-level whitespace differences would break the digest.
//
// Supported header formats:
//   - "sha256=<hex>" (GitHub style)
//   - "<hex>" (plain hex)
//
// Fails closed: a missing secret or signature, malformed hex, or a digest of
// the wrong length all return false. Comparison is constant-time.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	actual, err := parseSignature(signature)
	if err != nil {
		return false
	}
	if len(actual) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(expected, actual) == 1
}

// parseSignature extracts and decodes the hex digest from the header value.
func parseSignature(signature string) ([]byte, error) {
	if strings.HasPrefix(signature, "sha256=") {
		return hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	}
	return hex.DecodeString(signature)
}

// Sign computes the HMAC-SHA256 signature for a body. Used by tests and by
// outbound tooling that needs to produce valid deliveries. Hex-encoded.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
