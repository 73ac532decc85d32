package settlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/settlement"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/tokens"
)

const (
	payer       = "acct:payer"
	beneficiary = "acct:treasury"
	spender     = "svc:scouting"
)

func newSettlement(t *testing.T) (*settlement.Settlement, *tokens.Bank) {
	t.Helper()
	bank := tokens.NewBank()
	s := settlement.New(bank, spender, beneficiary)
	require.NoError(t, s.SetCurrencies([]string{"MSU", "MSC"}))
	require.NoError(t, s.SetPrice("MSU", 2, 100))
	require.NoError(t, s.SetPrice("MSC", 2, 40))
	require.NoError(t, s.SetPrice("MSU", 1, 0))
	return s, bank
}

func TestChargeAllConfiguredCurrencies(t *testing.T) {
	s, bank := newSettlement(t)
	bank.Mint("MSU", payer, 500)
	bank.Mint("MSC", payer, 500)
	bank.Approve("MSU", payer, spender, 500)
	bank.Approve("MSC", payer, spender, 500)

	transfers, err := s.Charge(context.Background(), payer, 2)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "MSU", transfers[0].Currency)
	assert.Equal(t, "MSC", transfers[1].Currency)
	assert.Equal(t, uint64(400), bank.BalanceOf("MSU", payer))
	assert.Equal(t, uint64(100), bank.BalanceOf("MSU", beneficiary))
	assert.Equal(t, uint64(40), bank.BalanceOf("MSC", beneficiary))
}

func TestChargeSkipsZeroPrice(t *testing.T) {
	s, bank := newSettlement(t)
	bank.Mint("MSU", payer, 500)

	transfers, err := s.Charge(context.Background(), payer, 1)
	require.NoError(t, err)
	assert.Empty(t, transfers)
	assert.Equal(t, uint64(500), bank.BalanceOf("MSU", payer))
}

func TestChargeUnpricedLevelChargesNothing(t *testing.T) {
	s, _ := newSettlement(t)
	transfers, err := s.Charge(context.Background(), payer, 9)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestChargeFailureLeavesNoPartialState(t *testing.T) {
	s, bank := newSettlement(t)
	bank.Mint("MSU", payer, 500)
	bank.Approve("MSU", payer, spender, 500)
	// MSC unfunded: the whole charge must fail and MSU must be untouched.
	_, err := s.Charge(context.Background(), payer, 2)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Funds))
	assert.Equal(t, uint64(500), bank.BalanceOf("MSU", payer))
	assert.Equal(t, uint64(0), bank.BalanceOf("MSU", beneficiary))
}

func TestChargeRequiresAllowance(t *testing.T) {
	s, bank := newSettlement(t)
	bank.Mint("MSU", payer, 500)
	bank.Mint("MSC", payer, 500)
	bank.Approve("MSU", payer, spender, 500)
	// MSC allowance missing.
	_, err := s.Charge(context.Background(), payer, 2)
	require.Error(t, err)
	assert.Equal(t, "insufficient allowance", fault.ReasonOf(err))
}

func TestSetCurrenciesValidation(t *testing.T) {
	s, _ := newSettlement(t)
	assert.Error(t, s.SetCurrencies([]string{"MSU", "MSU"}))
	assert.Error(t, s.SetCurrencies([]string{""}))
	assert.Error(t, s.SetPrice("", 1, 10))
	assert.Error(t, s.SetBeneficiary(" "))
}
