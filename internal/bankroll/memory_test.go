package bankroll

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstContactGrantsStartingBalance(t *testing.T) {
	t.Parallel()

	m := NewMemory(5000)
	bal, err := m.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 5000, bal)
}

func TestDebitAndCredit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(1000)

	require.NoError(t, m.Debit(ctx, "bob", 400))
	bal, _ := m.Balance(ctx, "bob")
	assert.Equal(t, 600, bal)

	require.NoError(t, m.Credit(ctx, "bob", 900))
	bal, _ = m.Balance(ctx, "bob")
	assert.Equal(t, 1500, bal)
}

func TestDebitBeyondBalanceRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(100)

	err := m.Debit(ctx, "carol", 200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bal, _ := m.Balance(ctx, "carol")
	assert.Equal(t, 100, bal)
}

func TestNegativeAmountsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(100)
	assert.Error(t, m.Debit(ctx, "dave", -1))
	assert.Error(t, m.Credit(ctx, "dave", -1))
}
