package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureValid(t *testing.T) {
	body := []byte(`{"event":"content.changed"}`)
	secret := "test-secret"

	sig := Sign(body, secret)
	assert.True(t, VerifySignature(body, sig, secret))
	assert.True(t, VerifySignature(body, "sha256="+sig, secret))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	body := []byte(`{"event":"content.changed"}`)
	sig := Sign(body, "secret-a")
	assert.False(t, VerifySignature(body, sig, "secret-b"))
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	body := []byte(`{"event":"content.changed"}`)
	sig := Sign(body, "test-secret")
	assert.False(t, VerifySignature([]byte(`{"event":"content.deleted"}`), sig, "test-secret"))
}

func TestVerifySignatureByteExactBody(t *testing.T) {
	// Same JSON meaning, different bytes. The digest must not survive
	// re-serialization.
	compact := []byte(`{"event":"x"}`)
	spaced := []byte(`{"event": "x"}`)
	sig := Sign(compact, "test-secret")
	assert.True(t, VerifySignature(compact, sig, "test-secret"))
	assert.False(t, VerifySignature(spaced, sig, "test-secret"))
}

func TestVerifySignatureFailsClosed(t *testing.T) {
	body := []byte(`{}`)
	sig := Sign(body, "test-secret")

	assert.False(t, VerifySignature(body, "", "test-secret"), "empty signature")
	assert.False(t, VerifySignature(body, sig, ""), "empty secret")
	assert.False(t, VerifySignature(body, "sha256=not-hex", "test-secret"), "malformed hex")
	assert.False(t, VerifySignature(body, "sha256=deadbeef", "test-secret"), "truncated digest")
}
