package game

import (
	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/evaluator"
)

// ProgressKind tells the caller what the table needs next after an
// action (or hand start) has been applied.
type ProgressKind int

const (
	// ProgressAwait means a player still has to act this street.
	ProgressAwait ProgressKind = iota
	// ProgressHandDone means the hand is over and settled.
	ProgressHandDone
)

// Progress is the outcome of advancing the hand state machine.
type Progress struct {
	Kind   ProgressKind
	Next   *Player     // set for ProgressAwait
	Result *HandResult // set for ProgressHandDone
}

// HandResult records how a hand ended and where the chips went.
type HandResult struct {
	HandID string
	Reason string // "showdown" or "fold_win"
	Pots   []Pot
}

// PostBlinds commits the small and big blind from the first two seats
// of the action order. Short stacks post what they can and go all-in.
func (e *Engine) PostBlinds() {
	t := e.table
	e.ExecuteAction(ActionRequest{
		Type:   ActionSmallBlind,
		Player: t.Order[0],
		Amount: t.MinBet / 2,
		Blind:  true,
	})
	e.ExecuteAction(ActionRequest{
		Type:   ActionBigBlind,
		Player: t.Order[1],
		Amount: t.MinBet,
		Blind:  true,
	})
}

// Advance runs the hand state machine after an action has been applied:
// fold-win detection, then the hunt for the next pending player, then
// street advancement. When every remaining player is all-in the board
// runs out to showdown without further prompting.
func (e *Engine) Advance() Progress {
	t := e.table

	contenders := t.Contenders()
	if len(contenders) <= 1 {
		var winner *Player
		if len(contenders) == 1 {
			winner = contenders[0]
		}
		return Progress{Kind: ProgressHandDone, Result: e.FoldWin(winner)}
	}

	if next := t.NextPending(); next != nil {
		return Progress{Kind: ProgressAwait, Next: next}
	}

	for {
		if t.Phase() == PhaseRiver {
			return Progress{Kind: ProgressHandDone, Result: e.Showdown()}
		}
		e.dealStreet()
		t.ResetRound()
		if next := t.NextPending(); next != nil {
			return Progress{Kind: ProgressAwait, Next: next}
		}
	}
}

// dealStreet burns a card and deals the next street onto the board.
func (e *Engine) dealStreet() {
	t := e.table
	t.Deck.Burn()
	n := 1
	if len(t.Board) == 0 {
		n = 3
	}
	t.Board = append(t.Board, t.Deck.DealN(n)...)

	e.logger.Debug("street dealt",
		"hand", t.HandID,
		"phase", t.Phase().String(),
		"board", deck.Strings(t.Board))
}

// Showdown evaluates every contender against the board, builds the side
// pots, and settles them. A hand that fails to evaluate is logged and
// treated as losing rather than aborting the whole showdown.
func (e *Engine) Showdown() *HandResult {
	t := e.table

	contenders := t.Contenders()
	for _, p := range contenders {
		cards := make([]deck.Card, 0, 7)
		cards = append(cards, p.HoleCards...)
		cards = append(cards, t.Board...)
		rank, err := evaluator.Evaluate(cards)
		if err != nil {
			e.logger.Error("hand evaluation failed, treating as losing",
				"hand", t.HandID,
				"player", p.Name,
				"error", err)
			p.Result = nil
			continue
		}
		r := rank
		p.Result = &r
	}

	pots := BuildSidePots(t.Seats)
	DistributePots(pots, contenders)

	if !hasWinners(pots) && len(contenders) > 0 && t.Betting.Total > 0 {
		// Should be unreachable: every pot falls back to its eligible
		// set. Award everything to the first contender rather than
		// burning chips, and shout about it.
		e.logger.Error("pot distribution produced no winners, awarding pot to first contender",
			"hand", t.HandID,
			"player", contenders[0].Name,
			"pot", t.Betting.Total)
		pots = []Pot{{
			Amount:   t.Betting.Total,
			Eligible: contenders,
			Winners:  []Payout{{Player: contenders[0], Amount: t.Betting.Total}},
		}}
	}

	e.settle(pots)
	logPots(e.logger.With("hand", t.HandID), pots)
	return &HandResult{HandID: t.HandID, Reason: "showdown", Pots: pots}
}

// FoldWin awards the entire pot to the last player standing without any
// evaluation. A nil winner (everyone gone mid-hand) simply clears the
// pot state so the table stays consistent for teardown.
func (e *Engine) FoldWin(winner *Player) *HandResult {
	t := e.table

	var pots []Pot
	if winner != nil {
		pots = []Pot{{
			Amount:   t.Betting.Total,
			Eligible: []*Player{winner},
			Winners:  []Payout{{Player: winner, Amount: t.Betting.Total}},
		}}
		e.logger.Debug("hand won by fold",
			"hand", t.HandID,
			"player", winner.Name,
			"pot", t.Betting.Total)
	} else if t.Betting.Total > 0 {
		// Everyone in the hand is gone. The pot has no owner left, so
		// it leaves the table rather than sit stranded in bet state.
		e.logger.Error("hand ended with no contenders, forfeiting pot",
			"hand", t.HandID,
			"pot", t.Betting.Total)
		t.ExpectedChips -= t.Betting.Total
		t.Betting.Total = 0
	}

	e.settle(pots)
	return &HandResult{HandID: t.HandID, Reason: "fold_win", Pots: pots}
}

// settle pays the winners and zeroes all per-hand bet state. After this
// every chip is back in a stack and conservation must hold again.
func (e *Engine) settle(pots []Pot) {
	t := e.table

	for _, pot := range pots {
		for _, w := range pot.Winners {
			w.Player.Stack += w.Amount
			if w.Player.Stack > MaxStack {
				w.Player.Stack = MaxStack
			}
		}
	}

	t.Betting.Total -= PotTotal(pots)
	t.Betting.Pots = pots
	for _, p := range t.Seats {
		p.Bet = 0
		p.TotalBet = 0
	}

	if err := t.CheckConservation(); err != nil {
		e.logger.Error("settlement broke conservation", "hand", t.HandID, "error", err)
	}
}

func hasWinners(pots []Pot) bool {
	for _, pot := range pots {
		if len(pot.Winners) > 0 {
			return true
		}
	}
	return false
}
