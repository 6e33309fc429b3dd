package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostBlinds(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000, 1000)
	require.NoError(t, tbl.StartHand("h1"))
	eng.PostBlinds()

	sb, bb := tbl.Order[0], tbl.Order[1]
	assert.Equal(t, 50, sb.Bet)
	assert.Equal(t, 950, sb.Stack)
	assert.Equal(t, 100, bb.Bet)
	assert.Equal(t, 900, bb.Stack)

	assert.Equal(t, 100, tbl.Betting.CurrentMax)
	assert.Equal(t, 150, tbl.Betting.Total)

	// Blinds are forced; both players still owe a decision this round.
	assert.False(t, sb.Acted)
	assert.False(t, bb.Acted)

	// Three-handed the button acts first pre-flop.
	assert.Equal(t, tbl.Order[2], tbl.NextPending())
	assert.NoError(t, tbl.CheckConservation())
}

func TestShortBlindGoesAllIn(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 30, 1000)
	require.NoError(t, tbl.StartHand("h1"))
	eng.PostBlinds()

	sb := tbl.Order[0]
	assert.Equal(t, 30, sb.Bet)
	assert.Equal(t, 0, sb.Stack)
	assert.Equal(t, StatusAllIn, sb.Status)
	assert.Equal(t, 100, tbl.Betting.CurrentMax)
}

func TestCheckRejectedFacingBet(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)

	a, b := tbl.Seats[0], tbl.Seats[1]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 200}).OK)

	res := eng.ExecuteAction(ActionRequest{Type: ActionCheck, Player: b})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Reason)

	// A rejected action leaves the table untouched.
	assert.Equal(t, 1000, b.Stack)
	assert.Equal(t, 0, b.Bet)
	assert.False(t, b.Acted)
}

func TestCallClampedToStack(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 40)
	startRound(tbl)

	a, b := tbl.Seats[0], tbl.Seats[1]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 200}).OK)

	res := eng.ExecuteAction(ActionRequest{Type: ActionCall, Player: b})
	require.True(t, res.OK)
	assert.Equal(t, 40, res.Delta)
	assert.Equal(t, 0, b.Stack)
	assert.Equal(t, StatusAllIn, b.Status)
}

func TestBetCappedToOpponentMax(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 250)
	startRound(tbl)

	a := tbl.Seats[0]
	res := eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 800})
	require.True(t, res.OK)
	assert.Equal(t, 250, a.Bet)
	assert.Equal(t, 750, a.Stack)
}

func TestBetOverLiveBetRejected(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)

	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: tbl.Seats[0], Amount: 200}).OK)
	res := eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: tbl.Seats[1], Amount: 400})
	assert.False(t, res.OK)
}

func TestBetBelowMinimumRaisedToMinimum(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)

	a := tbl.Seats[0]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 20}).OK)
	assert.Equal(t, 100, a.Bet)
}

func TestRaiseReopensRound(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000, 1000)
	startRound(tbl)

	a, b, c := tbl.Seats[0], tbl.Seats[1], tbl.Seats[2]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 100}).OK)
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionCall, Player: b}).OK)
	require.True(t, a.Acted)
	require.True(t, b.Acted)

	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionRaise, Player: c, Amount: 300}).OK)

	assert.False(t, a.Acted)
	assert.False(t, b.Acted)
	assert.True(t, c.Acted)
	assert.Equal(t, 300, tbl.Betting.CurrentMax)
	assert.Equal(t, 200, tbl.Betting.MinRaise)
}

func TestRaiseBelowMinimumBumpedUp(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)

	a, b := tbl.Seats[0], tbl.Seats[1]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 100}).OK)

	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionRaise, Player: b, Amount: 120}).OK)
	assert.Equal(t, 200, b.Bet)
}

func TestShortAllInDoesNotShrinkMinRaise(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 150, 1000)
	startRound(tbl)

	a, b, c := tbl.Seats[0], tbl.Seats[1], tbl.Seats[2]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 100}).OK)

	// b shoves for 150: raises CurrentMax but below the full increment.
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionAllIn, Player: b}).OK)
	assert.Equal(t, 150, tbl.Betting.CurrentMax)
	assert.Equal(t, 100, tbl.Betting.MinRaise)

	// The round still reopens for everyone else.
	assert.False(t, a.Acted)
	assert.False(t, c.Acted)
}

func TestFoldRemovesPlayerFromContention(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000, 1000)
	startRound(tbl)

	a := tbl.Seats[0]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionFold, Player: a}).OK)
	assert.Equal(t, StatusFolded, a.Status)
	assert.Len(t, tbl.Contenders(), 2)

	res := eng.ExecuteAction(ActionRequest{Type: ActionFold, Player: a})
	assert.False(t, res.OK)
}

func TestActionsConserveChips(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 500, 800, 1200)
	startRound(tbl)

	a, b, c := tbl.Seats[0], tbl.Seats[1], tbl.Seats[2]
	eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: a, Amount: 300})
	eng.ExecuteAction(ActionRequest{Type: ActionRaise, Player: b, Amount: 800})
	eng.ExecuteAction(ActionRequest{Type: ActionCall, Player: c})
	eng.ExecuteAction(ActionRequest{Type: ActionAllIn, Player: a})

	assert.NoError(t, tbl.CheckConservation())
	assert.Equal(t, 2100, tbl.Betting.Total)
}
