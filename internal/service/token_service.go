package service

import "time"

// TokenService issues and decodes signed bearer tokens.
type TokenService interface {
	// Issue signs a token naming subject, expiring after ttl.
	// ttl <= 0 uses the configured default.
	Issue(subject string, ttl time.Duration) (string, error)
	// Decode verifies signature and expiry and returns the subject.
	// Any failure (bad signature, expired, malformed, missing subject)
	// reports ok=false without distinguishing the cause.
	Decode(token string) (subject string, ok bool)
}
