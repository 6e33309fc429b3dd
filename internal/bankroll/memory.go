// Package bankroll provides the chip-ledger collaborator the room
// consumes. The in-memory implementation backs tests and single-process
// deployments; a database-backed one can replace it behind the same
// interface.
package bankroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Memory is a thread-safe in-memory bankroll ledger.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int

	// StartingBalance is granted to users on first contact.
	StartingBalance int
}

// NewMemory creates an empty ledger that grants each new user the given
// starting balance.
func NewMemory(startingBalance int) *Memory {
	return &Memory{
		balances:        make(map[string]int),
		StartingBalance: startingBalance,
	}
}

func (m *Memory) balance(userID string) int {
	if _, ok := m.balances[userID]; !ok {
		m.balances[userID] = m.StartingBalance
	}
	return m.balances[userID]
}

// Balance returns the user's current balance, creating the account on
// first contact.
func (m *Memory) Balance(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(userID), nil
}

// Debit removes chips from the user's balance.
func (m *Memory) Debit(_ context.Context, userID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative debit %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balance(userID) < amount {
		return ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	return nil
}

// Credit adds chips to the user's balance.
func (m *Memory) Credit(_ context.Context, userID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative credit %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[userID] = m.balance(userID) + amount
	return nil
}
