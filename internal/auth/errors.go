package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes. These are part of the cross-service
// contract: every Cortex service returns exactly these codes for these
// conditions, so clients can react uniformly no matter which service
// rejected the request.
const (
	CodeTokenMissing            = "token_missing"
	CodeTokenExpired            = "token_expired"
	CodeTokenInvalid            = "token_invalid"
	CodeIssuerInvalid           = "issuer_invalid"
	CodeInsufficientPermissions = "insufficient_permissions"
	CodeRoleRequired            = "role_required"
)

// Sentinel errors for token verification. The codec wraps these with
// context; callers match with errors.Is.
var (
	// ErrTokenMissing indicates that no token was presented where one
	// is required. Raised by the request gate, never by the codec.
	ErrTokenMissing = errors.New("no access token provided")

	// ErrTokenMalformed indicates that the token failed structural parsing.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrInvalidSignature indicates that the token signature did not
	// verify against the configured public key.
	ErrInvalidSignature = errors.New("token signature is invalid")

	// ErrAlgorithmNotAllowed indicates that the token header declared a
	// signing algorithm other than the configured asymmetric one.
	ErrAlgorithmNotAllowed = errors.New("signing algorithm is not allowed")

	// ErrTokenExpired indicates that the token expiry, adjusted for
	// clock skew, has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrIssuerMismatch indicates that the iss claim did not match the
	// configured issuer.
	ErrIssuerMismatch = errors.New("token issuer mismatch")
)

// Sentinel errors for key material resolution. These are configuration
// errors and must surface at process startup, not at first request.
var (
	// ErrNoKeyMaterial indicates that neither an inline public key nor a
	// key file path was configured.
	ErrNoKeyMaterial = errors.New("no public key material configured")

	// ErrInvalidKeyMaterial indicates that the configured key material
	// could not be parsed as an RSA public key.
	ErrInvalidKeyMaterial = errors.New("public key material is invalid")
)

// Error is a terminal authentication or authorization failure carrying
// the fixed HTTP status and machine code for the response contract.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Classify maps a verification error onto the fixed status/code table.
// The mapping is 1:1 and must not change across services: malformed
// tokens and bad signatures both surface as token_invalid so that the
// response does not reveal which check failed.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}

	switch {
	case errors.Is(err, ErrTokenMissing):
		return &Error{
			Status:  http.StatusUnauthorized,
			Code:    CodeTokenMissing,
			Message: "Authentication required",
			cause:   err,
		}
	case errors.Is(err, ErrTokenExpired):
		return &Error{
			Status:  http.StatusUnauthorized,
			Code:    CodeTokenExpired,
			Message: "Access token has expired",
			cause:   err,
		}
	case errors.Is(err, ErrIssuerMismatch):
		return &Error{
			Status:  http.StatusUnauthorized,
			Code:    CodeIssuerInvalid,
			Message: "Invalid token issuer",
			cause:   err,
		}
	default:
		// Malformed structure, bad signature, disallowed algorithm and
		// anything unexpected all collapse to token_invalid.
		return &Error{
			Status:  http.StatusUnauthorized,
			Code:    CodeTokenInvalid,
			Message: "Invalid access token",
			cause:   err,
		}
	}
}

// ErrorBody is the JSON response body for authentication and
// authorization failures. The shape is identical across every service.
type ErrorBody struct {
	Detail ErrorDetail `json:"detail"`
}

// ErrorDetail holds the machine code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the fixed-contract error response.
func WriteError(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Detail: ErrorDetail{Code: e.Code, Message: e.Message},
	})
}
