// Package issuance mints the derivative items produced by a claimed
// scouting record and distributes expanded sub-seeds to them.
package issuance

import (
	"context"
	"sync"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
)

// SeedsPerDerivative is the number of entropy slots each minted item
// consumes from the expanded seed sequence.
const SeedsPerDerivative = 2

// MinterTypeScouting tags items minted through the scouting lifecycle.
const MinterTypeScouting = "scouting"

type Minter interface {
	Mint(caller, owner, minterType string, minterID uint64) (uint64, error)
}

type EntropyWriter interface {
	SetEntropySlot(caller string, itemID uint64, slot uint32, value entropy.Seed) error
}

type Orchestrator struct {
	mu     sync.RWMutex
	minter Minter
	writer EntropyWriter
	actor  string
	counts map[uint8]uint32
}

// New builds an orchestrator acting as actor, which must hold the
// mint-derivatives and write-entropy roles on the target collection.
func New(minter Minter, writer EntropyWriter, actor string, counts map[uint8]uint32) *Orchestrator {
	copied := map[uint8]uint32{}
	for level, n := range counts {
		copied[level] = n
	}
	return &Orchestrator{minter: minter, writer: writer, actor: actor, counts: copied}
}

// CountForLevel reports how many derivatives a record of the given level
// yields at claim time.
func (o *Orchestrator) CountForLevel(level uint8) (uint32, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n, ok := o.counts[level]
	return n, ok
}

func (o *Orchestrator) SetCount(level uint8, count uint32) error {
	if count == 0 {
		return fault.InvalidInputf("derivative count must be positive")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[level] = count
	return nil
}

// Issue mints the derivatives for a claimed record. Item k receives the
// expansion entries [k*SeedsPerDerivative, k*SeedsPerDerivative+1] in
// its entropy slots 0 and 1.
func (o *Orchestrator) Issue(_ context.Context, recordID uint64, owner string, level uint8, seed entropy.Seed) ([]uint64, error) {
	count, ok := o.CountForLevel(level)
	if !ok {
		return nil, fault.InvalidInputf("level not configured")
	}
	values := entropy.Expand(seed, int(count)*SeedsPerDerivative)
	ids := make([]uint64, 0, count)
	for k := uint32(0); k < count; k++ {
		itemID, err := o.minter.Mint(o.actor, owner, MinterTypeScouting, recordID)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < SeedsPerDerivative; j++ {
			if err := o.writer.SetEntropySlot(o.actor, itemID, j, values[k*SeedsPerDerivative+j]); err != nil {
				return nil, err
			}
		}
		ids = append(ids, itemID)
	}
	return ids, nil
}
