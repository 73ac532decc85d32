package scoutsig

// Domain binds a signed scouting request to one deployment. Name and
// Version identify the system; Instance identifies the verifying
// deployment itself, so a signature issued for one instance cannot be
// replayed against another.
type Domain struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version" yaml:"version"`
	Instance string `json:"instance" yaml:"instance"`
}

// Request is the fixed ordered field list covered by an authorization
// signature. Any mutation of any field invalidates the signature.
type Request struct {
	CollateralID uint64 `json:"collateral_id"`
	Level        uint8  `json:"level"`
	Role         string `json:"role"`
	LockDuration int64  `json:"lock_duration"`
	Expiry       int64  `json:"expiry"`
}

// Envelope carries a detached ed25519 signature over the structured
// hash of a Request bound to a Domain.
type Envelope struct {
	Version   string `json:"version"`
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

const (
	EnvelopeVersion  = "scout-sig-v1"
	AlgorithmEd25519 = "ed25519"
)
