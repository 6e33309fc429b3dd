// Package room runs tables: turn order prompts, action timeouts, the
// busted-player rebuy protocol, and the table lifecycle. It drives the
// game package and talks to the outside world only through the narrow
// collaborator interfaces defined here.
package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cardroom/holdem/internal/game"
)

// Bankroll is the persistence collaborator holding each user's chips
// outside of any table. The room debits it at buy-in and rebuy and
// credits it when a player cashes out or the table stops.
type Bankroll interface {
	Balance(ctx context.Context, userID string) (int, error)
	Debit(ctx context.Context, userID string, amount int) error
	Credit(ctx context.Context, userID string, amount int) error
}

var (
	ErrInsufficientBankroll = errors.New("bankroll does not cover buy-in")
	ErrTableFull            = errors.New("table is full")
	ErrTableStopped         = errors.New("table is stopped")
	ErrAlreadySeated        = errors.New("already seated at this table")
	ErrNotSeated            = errors.New("not seated at this table")
	ErrNoRebuyPending       = errors.New("no rebuy window open")
	ErrHandInProgress       = errors.New("hand already in progress")
	ErrNotEnoughPlayers     = errors.New("not enough players to start")
)

// BuyIn is a buy-in request to be validated against table limits and
// the user's bankroll.
type BuyIn struct {
	Requested int // 0 means the table minimum
	Min       int
	Max       int
	Bankroll  int
}

// NormalizeBuyIn clamps a requested buy-in into the table's limits and
// checks the bankroll covers it. Returns the amount to debit.
func NormalizeBuyIn(b BuyIn) (int, error) {
	amount := b.Requested
	if amount <= 0 {
		amount = b.Min
	}
	if amount < b.Min {
		amount = b.Min
	}
	if b.Max > 0 && amount > b.Max {
		amount = b.Max
	}
	if amount > b.Bankroll {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientBankroll, amount, b.Bankroll)
	}
	return amount, nil
}

// Prompt tells the transport which player must act, what they may do,
// and by when.
type Prompt struct {
	TableID  string
	PlayerID string
	Actions  []game.ValidAction
	Deadline time.Time
}

// PayoutView is one winner's share in a hand outcome.
type PayoutView struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
}

// PotView is a settled pot in a hand outcome.
type PotView struct {
	Amount  int          `json:"amount"`
	Winners []PayoutView `json:"winners"`
}

// Outcome reports a finished hand. Contributions record what each seat
// put into the pot, so consumers can compute net profit against the
// pot payouts.
type Outcome struct {
	TableID       string       `json:"table_id"`
	HandID        string       `json:"hand_id"`
	Reason        string       `json:"reason"`
	Board         []string     `json:"board"`
	Pots          []PotView    `json:"pots"`
	Contributions []PayoutView `json:"contributions,omitempty"`
}

// Notifier is the transport/presentation collaborator. Calls are made
// from inside table handlers and must not call back into the room;
// implementations should hand off to their own delivery machinery.
type Notifier interface {
	HandStarted(snap Snapshot)
	ActionApplied(snap Snapshot, playerID string, result game.ActionResult)
	PromptAction(prompt Prompt)
	HandEnded(outcome Outcome)
	RebuyOffered(tableID, playerID string, deadline time.Time)
	GameOver(tableID, reason string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) HandStarted(Snapshot)                            {}
func (NopNotifier) ActionApplied(Snapshot, string, game.ActionResult) {}
func (NopNotifier) PromptAction(Prompt)                             {}
func (NopNotifier) HandEnded(Outcome)                               {}
func (NopNotifier) RebuyOffered(string, string, time.Time)          {}
func (NopNotifier) GameOver(string, string)                         {}

// SeatView is the public view of one seat. Hole cards are only filled
// in for the perspective player.
type SeatView struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Seat     int      `json:"seat"`
	Stack    int      `json:"stack"`
	Bet      int      `json:"bet"`
	Status   string   `json:"status"`
	Button   bool     `json:"button"`
	Cards    []string `json:"cards,omitempty"`
}

// Snapshot is the renderable state of a table from one player's point
// of view.
type Snapshot struct {
	TableID  string     `json:"table_id"`
	HandID   string     `json:"hand_id,omitempty"`
	HandNum  int        `json:"hand_num"`
	Phase    string     `json:"phase"`
	Board    []string   `json:"board"`
	Pot      int        `json:"pot"`
	ToCall   int        `json:"to_call"`
	Awaiting string     `json:"awaiting,omitempty"`
	Seats    []SeatView `json:"seats"`
}
