package impl

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"identity/internal/observability/metrics"
)

// TokenConfig is fixed at startup and never mutated afterwards.
type TokenConfig struct {
	Issuer     string        // e.g. "identity"
	Audience   string        // e.g. "identity-clients"
	AccessTTL  time.Duration // default expiry for issued tokens
	SigningKey []byte        // HS256 secret
}

type TokenServiceImpl struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Issue signs a bearer token for subject expiring after ttl
// (ttl <= 0 falls back to the configured default). An already-expired
// token can only come out of a negative configured default, never out
// of the ttl argument.
func (t *TokenServiceImpl) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.cfg.AccessTTL
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    t.cfg.Issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{t.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.cfg.SigningKey)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	return signed, err
}

// Decode verifies signature and expiry and returns the embedded subject.
// Every failure mode (tampered, expired, malformed, empty subject) is
// reported as ok=false; the caller learns nothing about which check failed.
func (t *TokenServiceImpl) Decode(tokenStr string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	tok, err := t.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
