// Package identity defines the account identity scheme used across the
// scouting core: a stable string derived from an ed25519 public key, so
// that a signature alone is enough to name its signer.
package identity

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	prefix        = "acct:ed25519:"
	ed25519PubLen = 32
)

// FromEd25519PublicKey derives the canonical account identity for pub.
func FromEd25519PublicKey(pub []byte) (string, error) {
	if len(pub) != ed25519PubLen {
		return "", errors.New("ed25519 public key must be 32 bytes")
	}
	return prefix + base64.RawURLEncoding.EncodeToString(pub), nil
}

// Parse returns the public key embedded in id.
func Parse(id string) ([]byte, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return nil, errors.New("invalid account id format")
	}
	if parts[0] != "acct" {
		return nil, errors.New("invalid account id prefix")
	}
	if parts[1] != "ed25519" {
		return nil, errors.New("unsupported algorithm")
	}
	b64 := parts[2]
	if b64 == "" {
		return nil, errors.New("missing public key")
	}
	if strings.Contains(b64, "=") {
		return nil, errors.New("invalid base64url padding")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return nil, errors.New("invalid base64url public key")
	}
	if len(decoded) != ed25519PubLen {
		return nil, errors.New("invalid ed25519 public key length")
	}
	return decoded, nil
}

func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}
