package game

import (
	"fmt"
	"math/rand"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/charmbracelet/log"
)

// Phase is the stage of the current hand, derived from the number of
// community cards on the board.
type Phase int

const (
	PhasePreflop Phase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// Table is the canonical state for one table. All mutation happens
// through the betting Engine and the hand-progression methods, on
// behalf of a single serialized handler at a time.
type Table struct {
	ID     string
	MinBet int

	Seats  []*Player // seated players in seat order, including rebuy-parked seats
	Button int       // index into Seats of the dealer button

	HandID  string
	HandNum int
	Board   []deck.Card
	Deck    *deck.Deck

	Betting Betting

	// Order is the per-hand action rotation: index 0 is the small
	// blind and first to act post-flop, index 1 the big blind.
	Order     []*Player
	LastActed int // index into Order of the last player to act; -1 at street start

	// ExpectedChips is the conservation baseline: total buy-ins minus
	// cash-outs. TotalChips must equal it at all times.
	ExpectedChips int

	// DeckFactory builds the deck for each hand. Tests swap in an
	// ordered deck to rig boards.
	DeckFactory func() *deck.Deck

	logger *log.Logger
}

// NewTable creates a table with an empty seating plan.
func NewTable(id string, minBet int, rng *rand.Rand, logger *log.Logger) *Table {
	t := &Table{
		ID:        id,
		MinBet:    minBet,
		Button:    -1,
		LastActed: -1,
		logger:    logger.WithPrefix("table").With("table", id),
	}
	t.DeckFactory = func() *deck.Deck { return deck.New(rng) }
	return t
}

// AddPlayer seats a player. The stack is counted into the conservation
// baseline.
func (t *Table) AddPlayer(p *Player) error {
	for _, o := range t.Seats {
		if o.ID == p.ID {
			return fmt.Errorf("player %s already seated", p.ID)
		}
	}
	if p.Stack > MaxStack {
		p.Stack = MaxStack
	}
	p.Seat = len(t.Seats)
	t.Seats = append(t.Seats, p)
	t.ExpectedChips += p.Stack
	return nil
}

// RemoveSeat drops a player from the table entirely and removes their
// remaining stack from the conservation baseline. The chips still owed
// to the player are returned for the caller to settle externally.
func (t *Table) RemoveSeat(p *Player) int {
	refund := p.Stack
	p.Status = StatusRemoved
	p.Stack = 0
	t.ExpectedChips -= refund

	for i, o := range t.Seats {
		if o == p {
			t.Seats = append(t.Seats[:i], t.Seats[i+1:]...)
			break
		}
	}
	if t.Button >= len(t.Seats) {
		t.Button = len(t.Seats) - 1
	}
	for i, o := range t.Seats {
		o.Seat = i
	}
	return refund
}

// PlayerByID finds a seated player.
func (t *Table) PlayerByID(id string) *Player {
	for _, p := range t.Seats {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Phase returns the current hand phase, derived purely from the board.
func (t *Table) Phase() Phase {
	switch len(t.Board) {
	case 0:
		return PhasePreflop
	case 3:
		return PhaseFlop
	case 4:
		return PhaseTurn
	default:
		return PhaseRiver
	}
}

// Contenders returns the players still able to win the current hand.
func (t *Table) Contenders() []*Player {
	var out []*Player
	for _, p := range t.Seats {
		if p.Status.InHand() {
			out = append(out, p)
		}
	}
	return out
}

// DealtIn returns the players that will be dealt into the next hand.
func (t *Table) DealtIn() []*Player {
	var out []*Player
	for _, p := range t.Seats {
		if (p.Status == StatusActive || p.Status == StatusPendingRejoin) && p.Stack > 0 {
			out = append(out, p)
		}
	}
	return out
}

// StartHand bootstraps a new hand: per-hand resets, button rotation,
// action order, a fresh shuffled deck, and hole cards. Blinds are
// posted separately through the betting engine.
func (t *Table) StartHand(handID string) error {
	for _, p := range t.Seats {
		if p.Status != StatusPendingRebuy {
			p.ResetForHand()
		}
	}

	players := t.DealtIn()
	if len(players) < 2 {
		return fmt.Errorf("need at least 2 players with chips, have %d", len(players))
	}

	t.HandNum++
	t.HandID = handID
	t.Board = nil
	t.Betting.Reset(t.MinBet)
	t.Deck = t.DeckFactory()

	t.advanceButton(players)

	// Rotate so Order[0] is the small blind: the seat after the button
	// three-handed and up, the button itself heads-up.
	buttonIdx := 0
	for i, p := range players {
		if p.Seat == t.Seats[t.Button].Seat {
			buttonIdx = i
			break
		}
	}
	start := (buttonIdx + 1) % len(players)
	if len(players) == 2 {
		start = buttonIdx
	}
	t.Order = make([]*Player, 0, len(players))
	for i := 0; i < len(players); i++ {
		t.Order = append(t.Order, players[(start+i)%len(players)])
	}

	for _, p := range t.Order {
		p.HoleCards = t.Deck.DealN(2)
	}

	// Pre-flop action starts after the blinds: index 2 with three or
	// more players, index 0 (the small blind) heads-up.
	first := 2
	if len(t.Order) == 2 {
		first = 0
	}
	t.LastActed = (first - 1 + len(t.Order)) % len(t.Order)

	t.logger.Debug("hand started",
		"hand", t.HandID,
		"num", t.HandNum,
		"players", len(t.Order),
		"button", t.Seats[t.Button].Name)
	return nil
}

// advanceButton moves the dealer button to the next seat that is dealt
// into this hand.
func (t *Table) advanceButton(players []*Player) {
	dealt := make(map[int]bool, len(players))
	for _, p := range players {
		dealt[p.Seat] = true
	}
	for i := 1; i <= len(t.Seats); i++ {
		idx := (t.Button + i) % len(t.Seats)
		if idx < 0 {
			idx += len(t.Seats)
		}
		if dealt[t.Seats[idx].Seat] {
			t.Button = idx
			return
		}
	}
}

// OrderIndex returns the player's position in the hand's action order,
// or -1 if they were not dealt in.
func (t *Table) OrderIndex(p *Player) int {
	for i, o := range t.Order {
		if o == p {
			return i
		}
	}
	return -1
}

// OpponentCap returns the largest current-round total any opponent
// still in the hand could match. Bets above it can never be contested.
func (t *Table) OpponentCap(p *Player) int {
	limit := 0
	for _, o := range t.Seats {
		if o == p || !o.Status.InHand() {
			continue
		}
		if can := o.Bet + o.Stack; can > limit {
			limit = can
		}
	}
	return limit
}

func (t *Table) opponentsCanAct(p *Player) bool {
	for _, o := range t.Seats {
		if o != p && o.Status.InHand() && o.CanAct() {
			return true
		}
	}
	return false
}

// NextPending scans the action order starting just after the last acted
// seat for a player that still needs to act. A player covering a field
// of all-ins is not pending: with nothing to call and nobody able to
// match a bet, the streets run out without them. A nil result means the
// betting round is complete.
func (t *Table) NextPending() *Player {
	if len(t.Order) == 0 {
		return nil
	}
	for i := 1; i <= len(t.Order); i++ {
		p := t.Order[(t.LastActed+i)%len(t.Order)]
		if !p.CanAct() || p.Acted {
			continue
		}
		if p.Bet >= t.Betting.CurrentMax && !t.opponentsCanAct(p) {
			continue
		}
		return p
	}
	return nil
}

// ResetRound clears per-round state for a new street.
func (t *Table) ResetRound() {
	t.Betting.CurrentMax = 0
	t.Betting.MinRaise = t.MinBet
	for _, p := range t.Seats {
		if p.Status.Seated() {
			p.ResetForRound()
		}
	}
	t.LastActed = -1
}

// TotalChips is every chip currently tracked by the table: stacks plus
// bets not yet settled into pots.
func (t *Table) TotalChips() int {
	total := t.Betting.Total
	for _, p := range t.Seats {
		total += p.Stack
	}
	return total
}

// CheckConservation verifies that no chip was created or destroyed.
func (t *Table) CheckConservation() error {
	if got := t.TotalChips(); got != t.ExpectedChips {
		return fmt.Errorf("chip conservation violated: have %d, expected %d", got, t.ExpectedChips)
	}
	return nil
}

// ValidAction describes one action a player may take, with its legal
// amount range for bet/raise.
type ValidAction struct {
	Type ActionType
	Min  int
	Max  int
}

// AvailableActions computes the legal actions for a player at the
// current bet level.
func (t *Table) AvailableActions(p *Player) []ValidAction {
	if p == nil || !p.CanAct() {
		return nil
	}

	b := t.Betting
	toCall := b.CurrentMax - p.Bet
	allIn := p.Bet + p.Stack
	limit := t.OpponentCap(p)

	actions := []ValidAction{{Type: ActionFold}}

	if toCall <= 0 {
		actions = append(actions, ValidAction{Type: ActionCheck})
		if b.CurrentMax == 0 {
			// Bets beyond what the richest opponent can match are
			// clamped by the engine; offer only the matchable range.
			max := allIn
			if max > limit {
				max = limit
			}
			if max > 0 {
				min := t.MinBet
				if min > max {
					min = max
				}
				actions = append(actions, ValidAction{Type: ActionBet, Min: min, Max: max})
			}
		}
	} else {
		call := toCall
		if call > p.Stack {
			call = p.Stack
		}
		actions = append(actions, ValidAction{Type: ActionCall, Min: call, Max: call})
	}

	if b.CurrentMax > 0 && allIn > b.CurrentMax && limit > b.CurrentMax {
		max := allIn
		if max > limit {
			max = limit
		}
		min := b.CurrentMax + b.MinRaise
		if min > max {
			min = max
		}
		actions = append(actions, ValidAction{Type: ActionRaise, Min: min, Max: max})
	}

	if p.Stack > 0 {
		actions = append(actions, ValidAction{Type: ActionAllIn, Min: allIn, Max: allIn})
	}

	return actions
}
