// Package auth implements the stateless authentication core shared by
// Cortex services: RSA key material loading, RS256 token verification,
// the Principal identity model with wildcard permissions, and the error
// taxonomy every authentication failure maps onto.
//
// The package holds no mutable state after construction. A Codec is
// built once at startup from configuration and is safe for concurrent
// use; verification is a pure function of the token, the key, and the
// clock.
package auth
