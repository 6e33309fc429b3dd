package game

import (
	"time"

	"github.com/charmbracelet/log"
)

// ActionType represents a player action
type ActionType int

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionAllIn
	ActionSmallBlind
	ActionBigBlind
)

// String returns the string representation of an action
func (a ActionType) String() string {
	switch a {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	case ActionAllIn:
		return "allin"
	case ActionSmallBlind:
		return "small_blind"
	case ActionBigBlind:
		return "big_blind"
	default:
		return "unknown"
	}
}

// ParseActionType maps a wire action name to an ActionType.
func ParseActionType(s string) (ActionType, bool) {
	switch s {
	case "fold":
		return ActionFold, true
	case "check":
		return ActionCheck, true
	case "call":
		return ActionCall, true
	case "bet":
		return ActionBet, true
	case "raise":
		return ActionRaise, true
	case "allin":
		return ActionAllIn, true
	default:
		return 0, false
	}
}

// Betting is the table-level bet state for the current hand.
type Betting struct {
	CurrentMax int   // highest current-round commitment; the amount to call
	MinRaise   int   // smallest legal increment over CurrentMax
	Total      int   // chips committed this hand, not yet moved into settled pots
	Pots       []Pot // settled pots, built once per hand at showdown or fold-win
}

// Reset clears the bet state for a new hand.
func (b *Betting) Reset(minBet int) {
	b.CurrentMax = 0
	b.MinRaise = minBet
	b.Total = 0
	b.Pots = nil
}

// ActionRequest describes a single action to execute.
type ActionRequest struct {
	Type   ActionType
	Player *Player
	Amount int  // requested current-round target for bet/raise and blinds
	Blind  bool // blind postings bypass the acted gate and never reopen the round
}

// ActionResult reports the outcome of an executed action. Failed
// actions perform no mutation at all.
type ActionResult struct {
	OK     bool
	Type   ActionType
	Delta  int // chips moved from stack to bets by this action
	Total  int // the player's current-round commitment afterwards
	Reason string
}

func reject(reason string) ActionResult {
	return ActionResult{OK: false, Reason: reason}
}

// Engine is the betting engine: the only component allowed to move
// chips between stacks and bets and to compute pots. It mutates state
// on behalf of the single active handler and never initiates flow.
type Engine struct {
	table  *Table
	logger *log.Logger
}

// NewEngine creates a betting engine bound to a table.
func NewEngine(table *Table, logger *log.Logger) *Engine {
	return &Engine{
		table:  table,
		logger: logger.WithPrefix("betting"),
	}
}

// CommitChips moves min(amount, stack) chips from the player's stack
// into their round and hand commitments, and flips the player all-in
// when the stack reaches exactly zero. Returns the amount actually
// committed; non-positive requests are a no-op.
func (e *Engine) CommitChips(p *Player, amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	p.Bet += amount
	p.TotalBet += amount
	p.Contributed += amount
	e.table.Betting.Total += amount
	if p.Stack == 0 {
		p.Status = StatusAllIn
	}
	return amount
}

// CommitTo raises the player's current-round commitment up to target,
// clamped to what they can actually cover.
func (e *Engine) CommitTo(p *Player, target int) int {
	if target < p.Bet {
		target = p.Bet
	}
	if max := p.Bet + p.Stack; target > max {
		target = max
	}
	return e.CommitChips(p, target-p.Bet)
}

// ExecuteAction is the single entry point for all betting actions,
// including blind postings. Validation happens before any mutation, so
// a rejected action leaves the table untouched.
func (e *Engine) ExecuteAction(req ActionRequest) ActionResult {
	p := req.Player
	if p == nil {
		return reject("unknown player")
	}
	if p.Status == StatusRemoved {
		return reject("player has left the table")
	}

	b := &e.table.Betting
	prevMax := b.CurrentMax
	before := p.Bet

	switch req.Type {
	case ActionFold:
		if !p.Status.InHand() {
			return reject("not in hand")
		}
		p.Status = StatusFolded
		p.Acted = true

	case ActionCheck:
		if b.CurrentMax != p.Bet {
			return reject("cannot check facing a bet")
		}
		p.Acted = true

	case ActionCall:
		need := b.CurrentMax - p.Bet
		if need < 0 {
			need = 0
		}
		e.CommitChips(p, need)
		p.Acted = true

	case ActionBet:
		if b.CurrentMax != 0 {
			return reject("cannot bet over a live bet")
		}
		target := req.Amount
		if target < e.table.MinBet {
			target = e.table.MinBet
		}
		if limit := e.table.OpponentCap(p); target > limit {
			target = limit
		}
		if target <= 0 {
			return reject("no opponent can match a bet")
		}
		e.CommitTo(p, target)
		p.Acted = true

	case ActionRaise:
		target := req.Amount
		if min := b.CurrentMax + b.MinRaise; target < min {
			target = min
		}
		if limit := e.table.OpponentCap(p); target > limit {
			target = limit
		}
		if target <= p.Bet {
			return reject("nothing left to raise")
		}
		e.CommitTo(p, target)
		p.Acted = true

	case ActionAllIn:
		if p.Stack <= 0 {
			return reject("no chips to commit")
		}
		e.CommitChips(p, p.Stack)
		p.Acted = true

	case ActionSmallBlind, ActionBigBlind:
		e.CommitTo(p, req.Amount)

	default:
		return reject("unsupported action")
	}

	if p.Bet > prevMax {
		b.CurrentMax = p.Bet
		if !req.Blind {
			// A short all-in below the previous minimum raise does
			// not shrink it.
			if delta := p.Bet - prevMax; delta >= b.MinRaise {
				b.MinRaise = delta
			}
			e.reopenRound(p)
		}
	}

	delta := p.Bet - before
	p.LastAction = LastAction{Type: req.Type, Amount: delta, At: time.Now()}

	e.logger.Debug("action executed",
		"player", p.Name,
		"action", req.Type.String(),
		"delta", delta,
		"round_total", p.Bet,
		"current_max", b.CurrentMax,
		"pot", b.Total)

	return ActionResult{OK: true, Type: req.Type, Delta: delta, Total: p.Bet}
}

// reopenRound clears the acted flag of every other live player after a
// raise. The round only ends once every live player has acted at the
// current bet level.
func (e *Engine) reopenRound(raiser *Player) {
	for _, o := range e.table.Seats {
		if o == raiser {
			continue
		}
		if o.Status == StatusActive {
			o.Acted = false
		}
	}
}
