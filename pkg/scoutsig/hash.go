package scoutsig

import (
	"crypto/sha256"
	"encoding/binary"
)

const hashTag = "metasoccer/scouting-request-v1"

// HashRequest computes the structured hash an authorizer signs. The
// encoding is length-prefixed and domain-separated; the role string is
// hashed as opaque bytes so arbitrary-length roles bind unambiguously.
func HashRequest(d Domain, r Request) [32]byte {
	h := sha256.New()
	h.Write([]byte(hashTag))
	h.Write([]byte{0})
	writeString(h, d.Name)
	writeString(h, d.Version)
	writeString(h, d.Instance)
	writeUint64(h, r.CollateralID)
	h.Write([]byte{r.Level})
	roleHash := sha256.Sum256([]byte(r.Role))
	h.Write(roleHash[:])
	writeUint64(h, uint64(r.LockDuration))
	writeUint64(h, uint64(r.Expiry))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	writeUint64(h, uint64(len(s)))
	h.Write([]byte(s))
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	h.Write(b[:])
}
