// Package entropy expands one oracle-delivered random seed into many
// independent sub-seeds via domain-separated hashing. One unpredictable
// value is economically obtainable per scouting cycle; everything minted
// from that cycle derives from it deterministically.
package entropy

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// Seed is a 256-bit random value.
type Seed [32]byte

var zeroSeed Seed

const expandTag = "metasoccer/scouting-entropy-v1"

// Expand derives n sub-seeds from seed. The derivation is pure and
// prefix-stable: Expand(s, n)[i] == Expand(s, n+k)[i] for all valid i.
func Expand(seed Seed, n int) []Seed {
	if n <= 0 {
		return nil
	}
	out := make([]Seed, n)
	for i := 0; i < n; i++ {
		out[i] = Derive(seed, uint64(i))
	}
	return out
}

// Derive computes the i-th sub-seed of seed.
func Derive(seed Seed, i uint64) Seed {
	h := sha256.New()
	h.Write([]byte(expandTag))
	h.Write([]byte{0})
	h.Write(seed[:])
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], i)
	h.Write(idx[:])
	var out Seed
	copy(out[:], h.Sum(nil))
	return out
}

func (s Seed) IsZero() bool { return s == zeroSeed }

func (s Seed) Hex() string { return hex.EncodeToString(s[:]) }

// ParseSeed decodes a 64-character lowercase hex seed.
func ParseSeed(in string) (Seed, error) {
	var s Seed
	b, err := hex.DecodeString(in)
	if err != nil {
		return s, errors.New("invalid seed encoding")
	}
	if len(b) != len(s) {
		return s, errors.New("seed must be 32 bytes")
	}
	copy(s[:], b)
	return s, nil
}
