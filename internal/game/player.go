package game

import (
	"time"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/evaluator"
)

// MaxStack caps a player's chip count so pot arithmetic can never
// overflow an int even with every stack at the maximum.
const MaxStack = 1 << 40

// Status is a player's lifecycle state at the table. A player is only
// ever in one state, which rules out the invalid flag combinations a
// loose bag of booleans would allow.
type Status int

const (
	StatusActive Status = iota
	StatusFolded
	StatusAllIn
	StatusRemoved       // left the table or was permanently removed
	StatusPendingRebuy  // busted, rebuy window open
	StatusPendingRejoin // rebuy accepted, waiting for the next hand
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "allin"
	case StatusRemoved:
		return "removed"
	case StatusPendingRebuy:
		return "pending_rebuy"
	case StatusPendingRejoin:
		return "pending_rejoin"
	default:
		return "unknown"
	}
}

// InHand reports whether the player can still win the current hand.
func (s Status) InHand() bool {
	return s == StatusActive || s == StatusAllIn
}

// Seated reports whether the player still occupies a seat, including
// busted players waiting on a rebuy.
func (s Status) Seated() bool {
	return s != StatusRemoved
}

// LastAction records the most recent action a player took.
type LastAction struct {
	Type   ActionType
	Amount int
	At     time.Time
}

// Player is one seat at a table. Stack and bet fields are mutated only
// by the betting Engine and the settlement step.
type Player struct {
	ID   string
	Name string
	Seat int

	Stack       int // chips behind, never negative
	Bet         int // committed in the active betting round
	TotalBet    int // committed during the entire hand
	Contributed int // same cadence as TotalBet but never decremented; net-profit accounting

	Status     Status
	Acted      bool // has acted at the current bet level this round
	LastAction LastAction

	HoleCards []deck.Card
	Result    *evaluator.HandRank // assigned at showdown only
}

// CanAct reports whether the player can take a betting action.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive && p.Stack > 0
}

// ResetForHand clears all per-hand state. Folded and all-in players
// return to active; removed and rebuy-parked players keep their status.
func (p *Player) ResetForHand() {
	p.Bet = 0
	p.TotalBet = 0
	p.Contributed = 0
	p.Acted = false
	p.LastAction = LastAction{}
	p.HoleCards = nil
	p.Result = nil
	switch p.Status {
	case StatusFolded, StatusAllIn, StatusPendingRejoin:
		p.Status = StatusActive
	}
}

// ResetForRound clears per-round state at the start of a new street.
func (p *Player) ResetForRound() {
	p.Bet = 0
	if p.Status == StatusActive {
		p.Acted = false
	}
}
