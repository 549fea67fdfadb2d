package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// LoadPublicKey resolves the RSA verification key from configuration.
// An inline PEM literal takes priority over a file path. Resolution
// happens once at startup; the returned key is immutable and safe for
// unsynchronized concurrent reads.
func LoadPublicKey(literal, path string) (*rsa.PublicKey, error) {
	if literal != "" {
		key, err := ParsePublicKey([]byte(literal))
		if err != nil {
			return nil, fmt.Errorf("inline public key: %w", err)
		}
		return key, nil
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrNoKeyMaterial, path, err)
		}
		key, err := ParsePublicKey(data)
		if err != nil {
			return nil, fmt.Errorf("public key file %s: %w", path, err)
		}
		return key, nil
	}

	return nil, fmt.Errorf("%w: set public_key or public_key_path", ErrNoKeyMaterial)
}

// ParsePrivateKey parses a PEM-encoded RSA private key. Both PKCS#8
// ("PRIVATE KEY") and PKCS#1 ("RSA PRIVATE KEY") blocks are accepted.
// Only the token generation tool and tests sign; services never hold a
// private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(string(data))))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKeyMaterial)
	}

	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKeyMaterial)
		}
		return key, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKeyMaterial, block.Type)
	}
}

// ParsePublicKey parses a PEM-encoded RSA public key. Both PKIX
// ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") blocks are accepted.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(string(data))))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKeyMaterial)
	}

	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKeyMaterial)
		}
		return key, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKeyMaterial, block.Type)
	}
}
