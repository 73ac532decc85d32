// Package tokens provides the in-memory implementations of the external
// token interfaces the scouting core collaborates with: collateral
// custody, fungible currencies, and the derivative collection.
package tokens

import (
	"sync"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
)

// Vault holds collateral items and the escrow relationship. Direct
// transfers into the escrow account are rejected unless the deposit was
// solicited by the core's own escrow operation.
type Vault struct {
	mu       sync.Mutex
	escrow   string
	owners   map[uint64]string
	nextID   uint64
	expected map[uint64]string
}

func NewVault(escrowAccount string) *Vault {
	return &Vault{
		escrow:   escrowAccount,
		owners:   map[uint64]string{},
		expected: map[uint64]string{},
	}
}

// Mint registers a new collateral item owned by owner and returns its id.
func (v *Vault) Mint(owner string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	v.owners[v.nextID] = owner
	return v.nextID
}

func (v *Vault) OwnerOf(id uint64) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	owner, ok := v.owners[id]
	if !ok {
		return "", fault.NotFoundf("collateral does not exist")
	}
	return owner, nil
}

// Transfer moves item id from one account to another. Deposits into the
// escrow account are only accepted when previously solicited.
func (v *Vault) Transfer(from, to string, id uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	owner, ok := v.owners[id]
	if !ok {
		return fault.NotFoundf("collateral does not exist")
	}
	if owner != from {
		return fault.Ownershipf("sender does not own collateral")
	}
	if to == v.escrow {
		if v.expected[id] != from {
			return fault.Statef("unsolicited escrow deposit")
		}
		delete(v.expected, id)
	}
	v.owners[id] = to
	return nil
}

// TransferToEscrow solicits and performs the deposit of id into escrow.
func (v *Vault) TransferToEscrow(from string, id uint64) error {
	v.mu.Lock()
	v.expected[id] = from
	v.mu.Unlock()
	err := v.Transfer(from, v.escrow, id)
	if err != nil {
		v.mu.Lock()
		delete(v.expected, id)
		v.mu.Unlock()
	}
	return err
}

// ReleaseFromEscrow returns id from escrow to its rightful account.
func (v *Vault) ReleaseFromEscrow(to string, id uint64) error {
	return v.Transfer(v.escrow, to, id)
}

func (v *Vault) EscrowAccount() string { return v.escrow }
