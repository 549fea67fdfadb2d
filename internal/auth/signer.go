package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Signer mints RS256 access tokens. The platform auth service is the
// only production signer; this implementation exists for the tokengen
// tool and for tests.
type Signer struct {
	key    *rsa.PrivateKey
	issuer string
	now    func() time.Time
}

// SignerOption is a functional option for the signer.
type SignerOption func(*Signer)

// WithSignerClock sets the time source used for iat/exp defaults.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a signer bound to a private key and issuer.
func NewSigner(key *rsa.PrivateKey, issuer string, opts ...SignerOption) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("signing key is required")
	}

	s := &Signer{
		key:    key,
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sign creates a signed token for the claims, valid for ttl. Missing
// iat, exp, jti and iss are filled with defaults.
func (s *Signer) Sign(claims *Claims, ttl time.Duration) (string, error) {
	now := s.now()

	if claims.IssuedAt == nil {
		claims.IssuedAt = &Time{Time: now}
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = &Time{Time: now.Add(ttl)}
	}
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	if claims.TokenID == "" {
		claims.TokenID = uuid.New().String()
	}

	header := map[string]string{
		"alg": AlgorithmRS256,
		"typ": "JWT",
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("encoding header: %w", err)
	}

	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(payloadJSON)

	hashed := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, hashed[:])
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}
