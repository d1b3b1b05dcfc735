package keys

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Handle is an opaque reference to key material. Supported forms:
//
//	env:NAME       value of environment variable NAME
//	file:/path     trimmed contents of a file
//	enc:<sealed>   a key sealed by the resolver's KeyCipher
//
// Adapters never see where a key lives, only the secret a handle resolves to.
type Handle string

// ErrEmptyHandle is returned when a handle resolves to nothing.
var ErrEmptyHandle = errors.New("empty key handle")

// SealedHandle wraps a sealed key as a handle.
func SealedHandle(sealed string) Handle {
	return Handle("enc:" + sealed)
}

// Resolver turns handles into key material.
type Resolver interface {
	Resolve(h Handle) (string, error)
}

type resolver struct {
	cipher KeyCipher
}

// NewResolver creates a resolver. cipher may be nil when no sealed keys are used.
func NewResolver(cipher KeyCipher) Resolver {
	return &resolver{cipher: cipher}
}

func (r *resolver) Resolve(h Handle) (string, error) {
	scheme, rest, ok := strings.Cut(string(h), ":")
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyHandle, redact(h))
	}

	var secret string
	switch scheme {
	case "env":
		secret = os.Getenv(rest)
	case "file":
		raw, err := os.ReadFile(rest)
		if err != nil {
			return "", fmt.Errorf("failed to read key file: %w", err)
		}
		secret = string(raw)
	case "enc":
		if r.cipher == nil {
			return "", errors.New("sealed key handle without a key cipher")
		}
		raw, err := r.cipher.Decrypt(rest)
		if err != nil {
			return "", fmt.Errorf("failed to open sealed key: %w", err)
		}
		secret = string(raw)
	default:
		return "", fmt.Errorf("unsupported key handle scheme %q", scheme)
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyHandle, redact(h))
	}
	return secret, nil
}

func redact(h Handle) string {
	if strings.HasPrefix(string(h), "enc:") {
		return "enc:<sealed>"
	}
	return string(h)
}
