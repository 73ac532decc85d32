package tokens

import (
	"context"
	"sync"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/settlement"
)

// Bank is an in-memory multi-currency balance and allowance book with
// pull-transfer semantics.
type Bank struct {
	mu         sync.Mutex
	balances   map[string]map[string]uint64
	allowances map[string]map[string]map[string]uint64
}

func NewBank() *Bank {
	return &Bank{
		balances:   map[string]map[string]uint64{},
		allowances: map[string]map[string]map[string]uint64{},
	}
}

func (b *Bank) Mint(currency, account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[currency] == nil {
		b.balances[currency] = map[string]uint64{}
	}
	b.balances[currency][account] += amount
}

// Approve lets spender pull up to amount of owner's currency.
func (b *Bank) Approve(currency, owner, spender string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.allowances[currency] == nil {
		b.allowances[currency] = map[string]map[string]uint64{}
	}
	if b.allowances[currency][owner] == nil {
		b.allowances[currency][owner] = map[string]uint64{}
	}
	b.allowances[currency][owner][spender] = amount
}

func (b *Bank) BalanceOf(currency, account string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[currency][account]
}

func (b *Bank) Allowance(currency, owner, spender string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowances[currency][owner][spender]
}

// TransferBatch applies all transfers or none. Every transfer is a pull
// by spender and must be covered by both balance and allowance.
func (b *Bank) TransferBatch(_ context.Context, spender string, transfers []settlement.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	needBalance := map[string]map[string]uint64{}
	needAllowance := map[string]map[string]uint64{}
	for _, t := range transfers {
		if needBalance[t.Currency] == nil {
			needBalance[t.Currency] = map[string]uint64{}
			needAllowance[t.Currency] = map[string]uint64{}
		}
		needBalance[t.Currency][t.From] += t.Amount
		needAllowance[t.Currency][t.From] += t.Amount
	}
	for currency, byAccount := range needBalance {
		for account, need := range byAccount {
			if b.balances[currency][account] < need {
				return fault.Fundsf("insufficient balance")
			}
			if b.allowances[currency][account][spender] < need {
				return fault.Fundsf("insufficient allowance")
			}
		}
	}
	for _, t := range transfers {
		b.balances[t.Currency][t.From] -= t.Amount
		b.allowances[t.Currency][t.From][spender] -= t.Amount
		b.balances[t.Currency][t.To] += t.Amount
	}
	return nil
}
