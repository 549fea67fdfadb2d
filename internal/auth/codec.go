package auth

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cortexhq/cortex-auth/internal/observability"
)

// AlgorithmRS256 is the only algorithm the Cortex auth service signs
// with. Tokens declaring anything else, including symmetric HMAC
// algorithms, are rejected outright to prevent algorithm-confusion
// attacks.
const AlgorithmRS256 = "RS256"

// Codec decodes and cryptographically verifies access tokens against the
// auth service public key. Verification is a pure, synchronous
// computation; a failure is final for the request.
type Codec struct {
	key       *rsa.PublicKey
	issuer    string
	clockSkew time.Duration
	logger    observability.Logger
	metrics   *Metrics
	now       func() time.Time
}

// CodecOption is a functional option for the codec.
type CodecOption func(*Codec)

// WithCodecLogger sets the logger for the codec.
func WithCodecLogger(logger observability.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithCodecMetrics sets the metrics for the codec.
func WithCodecMetrics(metrics *Metrics) CodecOption {
	return func(c *Codec) {
		c.metrics = metrics
	}
}

// WithCodecClock sets the time source used for expiry checks.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec bound to a verification key and issuer.
func NewCodec(key *rsa.PublicKey, issuer string, clockSkew time.Duration, opts ...CodecOption) (*Codec, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: verification key is required", ErrNoKeyMaterial)
	}

	c := &Codec{
		key:       key,
		issuer:    issuer,
		clockSkew: clockSkew,
		logger:    observability.NopLogger(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// tokenHeader is the decoded token header.
type tokenHeader struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Decode verifies a compact serialized token and returns its claims.
//
// Checks run in a fixed order and short-circuit on the first failure:
// structural parse, algorithm allow-list, signature, expiry with clock
// skew, issuer. Each failure wraps a distinct sentinel so the request
// gate can map it onto the response contract.
func (c *Codec) Decode(token string) (*Claims, error) {
	start := time.Now()

	claims, err := c.decode(token)
	if err != nil {
		c.record(resultForError(err), time.Since(start))
		return nil, err
	}

	c.record("success", time.Since(start))
	c.logger.Debug("token verified",
		observability.String("user_id", claims.UserID),
		observability.String("jti", claims.TokenID),
	)
	return claims, nil
}

func (c *Codec) decode(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrTokenMalformed, len(parts))
	}

	header, err := decodeHeader(parts[0])
	if err != nil {
		return nil, err
	}

	if header.Algorithm != AlgorithmRS256 {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmNotAllowed, header.Algorithm)
	}

	claims, err := decodePayload(parts[1])
	if err != nil {
		return nil, err
	}

	if err := c.verifySignature(parts[0]+"."+parts[1], parts[2]); err != nil {
		return nil, err
	}

	if err := c.validateClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// decodeHeader decodes the token header segment.
func decodeHeader(encoded string) (*tokenHeader, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: header is not base64url", ErrTokenMalformed)
	}

	var header tokenHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: header is not valid JSON", ErrTokenMalformed)
	}

	return &header, nil
}

// decodePayload decodes the token payload segment and checks its
// structural consistency.
func decodePayload(encoded string) (*Claims, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url", ErrTokenMalformed)
	}

	var claims Claims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrTokenMalformed)
	}

	if err := claims.validateStructure(); err != nil {
		return nil, err
	}

	return &claims, nil
}

// verifySignature verifies the RS256 signature over the signing input.
func (c *Codec) verifySignature(signingInput, signature string) error {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not base64url", ErrTokenMalformed)
	}

	hashed := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(c.key, crypto.SHA256, hashed[:], sig); err != nil {
		return ErrInvalidSignature
	}

	return nil
}

// validateClaims checks expiry (with clock skew tolerance) and issuer,
// in that order.
func (c *Codec) validateClaims(claims *Claims) error {
	now := c.now()

	if now.After(claims.ExpiresAt.Add(c.clockSkew)) {
		return fmt.Errorf("%w: expired at %v", ErrTokenExpired, claims.ExpiresAt.Time)
	}

	if claims.Issuer != c.issuer {
		return fmt.Errorf("%w: expected %q, got %q", ErrIssuerMismatch, c.issuer, claims.Issuer)
	}

	return nil
}

// record reports a validation outcome if metrics are configured.
func (c *Codec) record(result string, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordValidation(result, duration)
	}
}

// resultForError maps a verification error to a metrics result label.
func resultForError(err error) string {
	e := Classify(err)
	return e.Code
}
