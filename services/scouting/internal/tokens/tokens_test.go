package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/roles"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/tokens"
)

const escrow = "escrow:scouting"

func TestVaultEscrowRoundTrip(t *testing.T) {
	v := tokens.NewVault(escrow)
	id := v.Mint("acct:alice")

	require.NoError(t, v.TransferToEscrow("acct:alice", id))
	owner, err := v.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, escrow, owner)

	require.NoError(t, v.ReleaseFromEscrow("acct:alice", id))
	owner, err = v.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, "acct:alice", owner)
}

func TestVaultRejectsUnsolicitedEscrowDeposit(t *testing.T) {
	v := tokens.NewVault(escrow)
	id := v.Mint("acct:alice")
	err := v.Transfer("acct:alice", escrow, id)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.State))
	owner, _ := v.OwnerOf(id)
	assert.Equal(t, "acct:alice", owner)
}

func TestVaultTransferChecksOwnership(t *testing.T) {
	v := tokens.NewVault(escrow)
	id := v.Mint("acct:alice")
	err := v.Transfer("acct:mallory", "acct:bob", id)
	assert.True(t, fault.IsKind(err, fault.Ownership))
	err = v.TransferToEscrow("acct:mallory", id)
	assert.True(t, fault.IsKind(err, fault.Ownership))
	_, err = v.OwnerOf(999)
	assert.True(t, fault.IsKind(err, fault.NotFound))
}

func TestCollectionMintRequiresRole(t *testing.T) {
	reg := roles.NewRegistry()
	c := tokens.NewCollection(reg)
	_, err := c.Mint("svc:rogue", "acct:alice", "scouting", 1)
	assert.True(t, fault.IsKind(err, fault.Authorization))

	reg.Grant("svc:scouting", roles.MintDerivatives)
	id, err := c.Mint("svc:scouting", "acct:alice", "scouting", 7)
	require.NoError(t, err)

	owner, err := c.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, "acct:alice", owner)
	minterType, minterID, err := c.Origin(id)
	require.NoError(t, err)
	assert.Equal(t, "scouting", minterType)
	assert.Equal(t, uint64(7), minterID)
}

func TestCollectionEntropySlotWriteOnce(t *testing.T) {
	reg := roles.NewRegistry()
	reg.Grant("svc:scouting", roles.MintDerivatives)
	reg.Grant("svc:scouting", roles.WriteEntropy)
	c := tokens.NewCollection(reg)
	id, err := c.Mint("svc:scouting", "acct:alice", "scouting", 1)
	require.NoError(t, err)

	var v entropy.Seed
	v[0] = 1
	require.NoError(t, c.SetEntropySlot("svc:scouting", id, 0, v))
	got, ok := c.EntropySlot(id, 0)
	require.True(t, ok)
	assert.Equal(t, v, got)

	err = c.SetEntropySlot("svc:scouting", id, 0, v)
	require.Error(t, err)
	assert.Equal(t, "entropy slot already set", fault.ReasonOf(err))

	err = c.SetEntropySlot("svc:rogue", id, 1, v)
	assert.True(t, fault.IsKind(err, fault.Authorization))

	err = c.SetEntropySlot("svc:scouting", 999, 0, v)
	assert.True(t, fault.IsKind(err, fault.NotFound))
}
