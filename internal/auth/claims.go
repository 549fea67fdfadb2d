package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// Claims is the decoded payload of a verified access token. Instances
// live for the duration of one request and are never mutated.
type Claims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Issuer      string   `json:"iss"`
	IssuedAt    *Time    `json:"iat"`
	ExpiresAt   *Time    `json:"exp"`
	TokenID     string   `json:"jti"`
}

// Time wraps time.Time for numeric-timestamp JSON claims.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var timestamp float64
	if err := json.Unmarshal(data, &timestamp); err != nil {
		return err
	}
	t.Time = time.Unix(int64(timestamp), 0)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Unix())
}

// validateStructure checks that every required claim is present and that
// the timestamps are internally consistent. Failures here are structural
// and map to token_invalid.
func (c *Claims) validateStructure() error {
	switch {
	case c.UserID == "":
		return fmt.Errorf("%w: missing user_id claim", ErrTokenMalformed)
	case c.Email == "":
		return fmt.Errorf("%w: missing email claim", ErrTokenMalformed)
	case c.Name == "":
		return fmt.Errorf("%w: missing name claim", ErrTokenMalformed)
	case c.Issuer == "":
		return fmt.Errorf("%w: missing iss claim", ErrTokenMalformed)
	case c.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat claim", ErrTokenMalformed)
	case c.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp claim", ErrTokenMalformed)
	case c.TokenID == "":
		return fmt.Errorf("%w: missing jti claim", ErrTokenMalformed)
	case !c.ExpiresAt.After(c.IssuedAt.Time):
		return fmt.Errorf("%w: exp is not after iat", ErrTokenMalformed)
	}
	return nil
}
