package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ExtractBearerToken pulls the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	if token == "" {
		return "", errors.New("missing API token")
	}
	return token, nil
}

// Authenticate matches a presented bearer token against the configured token
// using a constant-time comparison.
func Authenticate(presented, configured string) bool {
	if presented == "" || configured == "" {
		return false
	}
	if len(presented) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
