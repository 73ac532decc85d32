// Package settlement charges the per-level scouting fee across the
// configured currencies. A charge either applies in full or not at all.
package settlement

import (
	"context"
	"strings"
	"sync"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
)

// Transfer is one pull-transfer from payer to beneficiary.
type Transfer struct {
	Currency string
	From     string
	To       string
	Amount   uint64
}

// Bank executes pull-transfers with allowance semantics. TransferBatch
// must be atomic: either every transfer applies or none does.
type Bank interface {
	TransferBatch(ctx context.Context, spender string, transfers []Transfer) error
}

type Settlement struct {
	mu          sync.RWMutex
	bank        Bank
	spender     string
	beneficiary string
	order       []string
	prices      map[string]map[uint8]uint64
}

func New(bank Bank, spender, beneficiary string) *Settlement {
	return &Settlement{
		bank:        bank,
		spender:     spender,
		beneficiary: beneficiary,
		prices:      map[string]map[uint8]uint64{},
	}
}

func (s *Settlement) SetBeneficiary(account string) error {
	if strings.TrimSpace(account) == "" {
		return fault.InvalidInputf("beneficiary account required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiary = account
	return nil
}

func (s *Settlement) Beneficiary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.beneficiary
}

// SetCurrencies replaces the ordered accepted-currency list.
func (s *Settlement) SetCurrencies(order []string) error {
	seen := map[string]struct{}{}
	for _, c := range order {
		if strings.TrimSpace(c) == "" {
			return fault.InvalidInputf("empty currency symbol")
		}
		if _, dup := seen[c]; dup {
			return fault.InvalidInputf("duplicate currency symbol")
		}
		seen[c] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append([]string(nil), order...)
	return nil
}

func (s *Settlement) Currencies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// SetPrice sets the fee charged in currency for level. A zero amount
// means the currency is skipped for that level.
func (s *Settlement) SetPrice(currency string, level uint8, amount uint64) error {
	if strings.TrimSpace(currency) == "" {
		return fault.InvalidInputf("empty currency symbol")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.prices[currency]
	if !ok {
		table = map[uint8]uint64{}
		s.prices[currency] = table
	}
	table[level] = amount
	return nil
}

func (s *Settlement) Price(currency string, level uint8) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[currency][level]
}

// Charge pulls the configured fee for level from payer, one transfer
// per accepted currency with a nonzero price, in list order. The
// returned transfers are the ones that applied.
func (s *Settlement) Charge(ctx context.Context, payer string, level uint8) ([]Transfer, error) {
	s.mu.RLock()
	beneficiary := s.beneficiary
	var transfers []Transfer
	for _, c := range s.order {
		amount := s.prices[c][level]
		if amount == 0 {
			continue
		}
		transfers = append(transfers, Transfer{Currency: c, From: payer, To: beneficiary, Amount: amount})
	}
	spender := s.spender
	s.mu.RUnlock()

	if len(transfers) == 0 {
		return nil, nil
	}
	if err := s.bank.TransferBatch(ctx, spender, transfers); err != nil {
		if _, ok := fault.KindOf(err); ok {
			return nil, err
		}
		return nil, fault.Wrap(fault.Funds, "fee transfer rejected", err)
	}
	return transfers, nil
}
