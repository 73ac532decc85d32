// Package scoutsig verifies delegated off-chain authorizations for the
// scouting start transition: an ed25519 signature over a structured,
// domain-bound hash of a fixed field schema.
package scoutsig

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"time"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/identity"
)

const (
	ReasonExpired          = "expired"
	ReasonInvalidSigner    = "invalid signer"
	ReasonInvalidSignature = "invalid signature"
	ReasonInvalidEncoding  = "invalid encoding"
	ReasonUnsupported      = "unsupported algorithm"
)

// SignerCheck reports whether the recovered account holds the
// authorize-requests role.
type SignerCheck func(account string) bool

// Verify checks env against the request fields bound to d. On success
// it returns the signer's account identity. Errors are Authorization
// faults carrying one of the Reason* constants.
func Verify(d Domain, r Request, env Envelope, now time.Time, isAuthorizer SignerCheck) (string, error) {
	if r.Expiry <= now.Unix() {
		return "", fault.Authorizationf(ReasonExpired)
	}
	if strings.TrimSpace(env.Version) != EnvelopeVersion {
		return "", fault.Authorizationf(ReasonUnsupported)
	}
	if strings.ToLower(strings.TrimSpace(env.Algorithm)) != AlgorithmEd25519 {
		return "", fault.Authorizationf(ReasonUnsupported)
	}
	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.PublicKey))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return "", fault.Authorizationf(ReasonInvalidEncoding)
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.Signature))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", fault.Authorizationf(ReasonInvalidEncoding)
	}
	digest := HashRequest(d, r)
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		return "", fault.Authorizationf(ReasonInvalidSignature)
	}
	signer, err := identity.FromEd25519PublicKey(pub)
	if err != nil {
		return "", fault.Authorizationf(ReasonInvalidEncoding)
	}
	if isAuthorizer == nil || !isAuthorizer(signer) {
		return "", fault.Authorizationf(ReasonInvalidSigner)
	}
	return signer, nil
}

// Sign produces an envelope for r bound to d. Used by the authorizer
// tooling and by tests; the core only verifies.
func Sign(d Domain, r Request, priv ed25519.PrivateKey) Envelope {
	digest := HashRequest(d, r)
	sig := ed25519.Sign(priv, digest[:])
	return Envelope{
		Version:   EnvelopeVersion,
		Algorithm: AlgorithmEd25519,
		PublicKey: base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}
}
