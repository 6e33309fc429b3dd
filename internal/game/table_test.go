package game

import (
	"testing"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionTypes(actions []ValidAction) []ActionType {
	types := make([]ActionType, len(actions))
	for i, a := range actions {
		types[i] = a.Type
	}
	return types
}

func TestStartHandOrderThreeHanded(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 1000, 1000)
	require.NoError(t, tbl.StartHand("h1"))

	// First hand: button lands on seat 0, blinds on seats 1 and 2.
	assert.Equal(t, 0, tbl.Button)
	require.Len(t, tbl.Order, 3)
	assert.Equal(t, tbl.Seats[1], tbl.Order[0])
	assert.Equal(t, tbl.Seats[2], tbl.Order[1])
	assert.Equal(t, tbl.Seats[0], tbl.Order[2])

	for _, p := range tbl.Order {
		assert.Len(t, p.HoleCards, 2)
	}
	assert.Equal(t, 1, tbl.HandNum)
	assert.Equal(t, PhasePreflop, tbl.Phase())
}

func TestStartHandOrderHeadsUp(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 500, 500)
	require.NoError(t, tbl.StartHand("h1"))

	// Heads-up the button posts the small blind and acts first.
	assert.Equal(t, tbl.Seats[tbl.Button], tbl.Order[0])
	assert.Equal(t, tbl.Order[0], tbl.NextPending())
}

func TestButtonSkipsBustedPlayers(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 1000, 1000)
	require.NoError(t, tbl.StartHand("h1")) // button seat 0

	tbl.Seats[1].Stack = 0
	require.NoError(t, tbl.StartHand("h2"))

	assert.Equal(t, 2, tbl.Button)
	assert.Len(t, tbl.Order, 2)
}

func TestStartHandNeedsTwoPlayers(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 0)
	assert.Error(t, tbl.StartHand("h1"))
}

func TestStartHandParksPendingRebuy(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 1000, 0)
	tbl.Seats[2].Status = StatusPendingRebuy

	require.NoError(t, tbl.StartHand("h1"))
	assert.Len(t, tbl.Order, 2)
	assert.Equal(t, StatusPendingRebuy, tbl.Seats[2].Status)
	assert.Empty(t, tbl.Seats[2].HoleCards)
}

func TestRemoveSeatReturnsStackAndReindexes(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 700, 500)
	p := tbl.Seats[1]

	refund := tbl.RemoveSeat(p)
	assert.Equal(t, 700, refund)
	assert.Equal(t, StatusRemoved, p.Status)
	require.Len(t, tbl.Seats, 2)
	assert.Equal(t, 1, tbl.Seats[1].Seat)
	assert.NoError(t, tbl.CheckConservation())
}

func TestNextPendingSkipsAllInAndFolded(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 500, 1000)
	startRound(tbl)

	tbl.Seats[0].Status = StatusFolded
	tbl.Seats[1].Status = StatusAllIn
	tbl.Seats[1].Bet = 500
	tbl.Seats[1].Stack = 0
	tbl.Betting.CurrentMax = 500

	assert.Equal(t, tbl.Seats[2], tbl.NextPending())

	tbl.Seats[2].Bet = 500
	tbl.Seats[2].Acted = true
	assert.Nil(t, tbl.NextPending())
}

func TestNextPendingSkipsPlayerCoveringAllIns(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 300)
	startRound(tbl)

	short := tbl.Seats[1]
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionAllIn, Player: short}).OK)
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionCall, Player: tbl.Seats[0]}).OK)

	// New street: the caller has chips behind but nobody to bet
	// against, so the round completes without prompting them.
	tbl.ResetRound()
	assert.Nil(t, tbl.NextPending())
}

func TestAvailableActionsUnopenedRound(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)

	actions := tbl.AvailableActions(tbl.Seats[0])
	assert.Equal(t,
		[]ActionType{ActionFold, ActionCheck, ActionBet, ActionAllIn},
		actionTypes(actions))

	for _, a := range actions {
		if a.Type == ActionBet {
			assert.Equal(t, 100, a.Min)
			assert.Equal(t, 1000, a.Max)
		}
	}
}

func TestAvailableActionsFacingBet(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 1000)
	startRound(tbl)
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionBet, Player: tbl.Seats[0], Amount: 300}).OK)

	actions := tbl.AvailableActions(tbl.Seats[1])
	assert.Equal(t,
		[]ActionType{ActionFold, ActionCall, ActionRaise, ActionAllIn},
		actionTypes(actions))

	for _, a := range actions {
		switch a.Type {
		case ActionCall:
			assert.Equal(t, 300, a.Min)
		case ActionRaise:
			assert.Equal(t, 600, a.Min)
			assert.Equal(t, 1000, a.Max)
		}
	}
}

func TestAvailableActionsClampedToOpponentStack(t *testing.T) {
	t.Parallel()

	// Unopened round against a single short stack: bets above what the
	// opponent can match are never offered.
	tbl, _ := newTestTable(t, 100, 1000, 300)
	startRound(tbl)

	actions := tbl.AvailableActions(tbl.Seats[0])
	assert.Equal(t,
		[]ActionType{ActionFold, ActionCheck, ActionBet, ActionAllIn},
		actionTypes(actions))
	for _, a := range actions {
		if a.Type == ActionBet {
			assert.Equal(t, 100, a.Min)
			assert.Equal(t, 300, a.Max)
		}
	}
}

func TestAvailableActionsAgainstAllInField(t *testing.T) {
	t.Parallel()

	tbl, eng := newTestTable(t, 100, 1000, 300)
	startRound(tbl)
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionAllIn, Player: tbl.Seats[1]}).OK)

	// Facing the shove: no raise entry, since nothing above the shove
	// can be matched.
	actions := tbl.AvailableActions(tbl.Seats[0])
	assert.Equal(t,
		[]ActionType{ActionFold, ActionCall, ActionAllIn},
		actionTypes(actions))

	// After calling, the next street offers no bet either.
	require.True(t, eng.ExecuteAction(ActionRequest{Type: ActionCall, Player: tbl.Seats[0]}).OK)
	tbl.ResetRound()
	actions = tbl.AvailableActions(tbl.Seats[0])
	assert.Equal(t,
		[]ActionType{ActionFold, ActionCheck, ActionAllIn},
		actionTypes(actions))
}

func TestAvailableActionsNoneForAllIn(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000)
	tbl.Seats[0].Status = StatusAllIn
	assert.Nil(t, tbl.AvailableActions(tbl.Seats[0]))
}

func TestPhaseFromBoard(t *testing.T) {
	t.Parallel()

	tbl, _ := newTestTable(t, 100, 1000, 1000)
	d := deck.New(nil)

	assert.Equal(t, PhasePreflop, tbl.Phase())
	tbl.Board = d.DealN(3)
	assert.Equal(t, PhaseFlop, tbl.Phase())
	tbl.Board = append(tbl.Board, d.DealN(1)...)
	assert.Equal(t, PhaseTurn, tbl.Phase())
	tbl.Board = append(tbl.Board, d.DealN(1)...)
	assert.Equal(t, PhaseRiver, tbl.Phase())
}
