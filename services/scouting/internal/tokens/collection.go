package tokens

import (
	"sync"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/roles"
)

// Collection is the derivative item collection plus its entropy store.
// Minting and entropy writes are role-gated; entropy slots are
// write-once.
type Collection struct {
	mu      sync.Mutex
	roles   *roles.Registry
	nextID  uint64
	owners  map[uint64]string
	minters map[uint64]mintOrigin
	store   map[uint64]map[uint32]entropy.Seed
}

type mintOrigin struct {
	minterType string
	minterID   uint64
}

func NewCollection(reg *roles.Registry) *Collection {
	return &Collection{
		roles:   reg,
		owners:  map[uint64]string{},
		minters: map[uint64]mintOrigin{},
		store:   map[uint64]map[uint32]entropy.Seed{},
	}
}

// Mint creates a new item owned by owner, tagged with its minter origin.
func (c *Collection) Mint(caller, owner, minterType string, minterID uint64) (uint64, error) {
	if !c.roles.Has(caller, roles.MintDerivatives) {
		return 0, fault.Authorizationf("caller lacks mint-derivatives role")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.owners[c.nextID] = owner
	c.minters[c.nextID] = mintOrigin{minterType: minterType, minterID: minterID}
	return c.nextID, nil
}

// SetEntropySlot writes one sub-seed into the entropy store. A slot,
// once written, cannot be overwritten.
func (c *Collection) SetEntropySlot(caller string, itemID uint64, slot uint32, value entropy.Seed) error {
	if !c.roles.Has(caller, roles.WriteEntropy) {
		return fault.Authorizationf("caller lacks write-entropy role")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[itemID]; !ok {
		return fault.NotFoundf("item does not exist")
	}
	slots, ok := c.store[itemID]
	if !ok {
		slots = map[uint32]entropy.Seed{}
		c.store[itemID] = slots
	}
	if _, taken := slots[slot]; taken {
		return fault.Statef("entropy slot already set")
	}
	slots[slot] = value
	return nil
}

func (c *Collection) EntropySlot(itemID uint64, slot uint32) (entropy.Seed, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[itemID][slot]
	return v, ok
}

func (c *Collection) OwnerOf(itemID uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[itemID]
	if !ok {
		return "", fault.NotFoundf("item does not exist")
	}
	return owner, nil
}

// Origin returns the minter tag recorded at mint time.
func (c *Collection) Origin(itemID uint64) (minterType string, minterID uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	origin, ok := c.minters[itemID]
	if !ok {
		return "", 0, fault.NotFoundf("item does not exist")
	}
	return origin.minterType, origin.minterID, nil
}
