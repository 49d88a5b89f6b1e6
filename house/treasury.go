package house

import "sync"

// Treasury is the funds collaborator: the house reports refunds and the
// owner's withdrawal through it. Implementations move real value; the house
// only decides amounts.
type Treasury interface {
	Payout(addr string, amount uint64) error
}

// LedgerTreasury is an in-memory treasury that records every payout. Tests
// assert collateral conservation against it.
type LedgerTreasury struct {
	mu      sync.Mutex
	payouts map[string]uint64
	total   uint64
}

// NewLedgerTreasury creates an empty payout ledger.
func NewLedgerTreasury() *LedgerTreasury {
	return &LedgerTreasury{payouts: make(map[string]uint64)}
}

// Payout records the amount against the address. A zero amount is a no-op.
func (l *LedgerTreasury) Payout(addr string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payouts[addr] += amount
	l.total += amount
	return nil
}

// Paid returns the cumulative amount paid out to addr.
func (l *LedgerTreasury) Paid(addr string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.payouts[addr]
}

// Total returns the cumulative amount paid out to everyone.
func (l *LedgerTreasury) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
