package issuance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/roles"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/issuance"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/tokens"
)

const actor = "svc:scouting"

func newOrchestrator(t *testing.T, counts map[uint8]uint32) (*issuance.Orchestrator, *tokens.Collection) {
	t.Helper()
	reg := roles.NewRegistry()
	reg.Grant(actor, roles.MintDerivatives)
	reg.Grant(actor, roles.WriteEntropy)
	c := tokens.NewCollection(reg)
	return issuance.New(c, c, actor, counts), c
}

func TestIssueDistributesExpandedSeeds(t *testing.T) {
	// level 4 yields 3 derivatives, each consuming 2 expansion entries:
	// item k gets entries [2k, 2k+1] in slots 0 and 1.
	o, c := newOrchestrator(t, map[uint8]uint32{4: 3})

	var seed entropy.Seed
	seed[5] = 0xCD
	ids, err := o.Issue(context.Background(), 12, "acct:alice", 4, seed)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	values := entropy.Expand(seed, 6)
	for k, id := range ids {
		owner, err := c.OwnerOf(id)
		require.NoError(t, err)
		assert.Equal(t, "acct:alice", owner)

		minterType, minterID, err := c.Origin(id)
		require.NoError(t, err)
		assert.Equal(t, issuance.MinterTypeScouting, minterType)
		assert.Equal(t, uint64(12), minterID)

		for j := 0; j < issuance.SeedsPerDerivative; j++ {
			got, ok := c.EntropySlot(id, uint32(j))
			require.True(t, ok, "item %d slot %d", k, j)
			assert.Equal(t, values[k*issuance.SeedsPerDerivative+j], got)
		}
	}
}

func TestIssueUnknownLevel(t *testing.T) {
	o, _ := newOrchestrator(t, map[uint8]uint32{1: 1})
	_, err := o.Issue(context.Background(), 1, "acct:alice", 9, entropy.Seed{})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.InvalidInput))
}

func TestSetCount(t *testing.T) {
	o, _ := newOrchestrator(t, map[uint8]uint32{1: 1})
	require.NoError(t, o.SetCount(2, 5))
	n, ok := o.CountForLevel(2)
	require.True(t, ok)
	assert.Equal(t, uint32(5), n)
	assert.Error(t, o.SetCount(3, 0))
}

func TestIssueFailsWhenActorLacksRole(t *testing.T) {
	reg := roles.NewRegistry()
	c := tokens.NewCollection(reg)
	o := issuance.New(c, c, actor, map[uint8]uint32{1: 1})
	_, err := o.Issue(context.Background(), 1, "acct:alice", 1, entropy.Seed{})
	assert.True(t, fault.IsKind(err, fault.Authorization))
}
