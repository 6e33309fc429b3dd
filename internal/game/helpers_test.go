package game

import (
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// newTestTable builds a table with one seated player per stack value,
// named p0, p1, ... in seat order.
func newTestTable(t *testing.T, minBet int, stacks ...int) (*Table, *Engine) {
	t.Helper()
	tbl := NewTable("test", minBet, rand.New(rand.NewSource(42)), testLogger())
	for i, stack := range stacks {
		name := fmt.Sprintf("p%d", i)
		require.NoError(t, tbl.AddPlayer(&Player{ID: name, Name: name, Stack: stack}))
	}
	return tbl, NewEngine(tbl, testLogger())
}

// startRound skips hand bootstrap and arms a bare betting round over
// every seat, for tests that exercise the engine directly.
func startRound(tbl *Table) {
	tbl.Betting.Reset(tbl.MinBet)
	tbl.Order = append([]*Player(nil), tbl.Seats...)
	tbl.LastActed = -1
}
