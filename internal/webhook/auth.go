package webhook

import (
	"crypto/subtle"
	"strings"
)

const bearerPrefix = "Bearer "

// ValidateBearer returns true if the Authorization header carries the
// configured secret.
//
// An empty configured secret means misconfiguration and denies everything;
// it never means "allow all". The comparison is constant-time over equal
// lengths and short-circuits to false (same cost as a content mismatch,
// never a panic) when lengths differ. Malformed headers and wrong tokens
// are indistinguishable to the caller: same boolean, same error shape.
func ValidateBearer(authHeader, secret string) bool {
	if secret == "" {
		return false
	}
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return false
	}
	if len(token) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
