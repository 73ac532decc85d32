package entropy

import (
	"crypto/rand"
	"testing"
)

func TestExpandDeterministic(t *testing.T) {
	var seed Seed
	if _, err := rand.Read(seed[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	a := Expand(seed, 8)
	b := Expand(seed, 8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expansion not deterministic at %d", i)
		}
	}
}

func TestExpandPrefixStable(t *testing.T) {
	var seed Seed
	seed[0] = 0xAB
	short := Expand(seed, 3)
	long := Expand(seed, 10)
	for i := range short {
		if short[i] != long[i] {
			t.Fatalf("prefix instability at %d", i)
		}
	}
}

func TestExpandValuesDistinct(t *testing.T) {
	var seed Seed
	values := Expand(seed, 64)
	seen := map[Seed]struct{}{}
	for i, v := range values {
		if v.IsZero() {
			t.Fatalf("zero sub-seed at %d", i)
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate sub-seed at %d", i)
		}
		seen[v] = struct{}{}
	}
}

func TestExpandDiffersAcrossSeeds(t *testing.T) {
	var a, b Seed
	b[31] = 1
	if Expand(a, 1)[0] == Expand(b, 1)[0] {
		t.Fatalf("distinct seeds produced identical expansion")
	}
}

func TestExpandNonPositiveCount(t *testing.T) {
	var seed Seed
	if got := Expand(seed, 0); got != nil {
		t.Fatalf("expected nil for zero count, got %d values", len(got))
	}
	if got := Expand(seed, -3); got != nil {
		t.Fatalf("expected nil for negative count")
	}
}

func TestParseSeedRoundTrip(t *testing.T) {
	var seed Seed
	if _, err := rand.Read(seed[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	parsed, err := ParseSeed(seed.Hex())
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if parsed != seed {
		t.Fatalf("round trip mismatch")
	}
	if _, err := ParseSeed("zz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := ParseSeed("abcd"); err == nil {
		t.Fatalf("expected error for short seed")
	}
}
