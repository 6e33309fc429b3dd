package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/game"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// RebuyMode controls what happens to players whose stack falls below
// the table minimum between hands.
type RebuyMode string

const (
	RebuyOff  RebuyMode = "off"  // busted players are removed immediately
	RebuyOnce RebuyMode = "once" // one rebuy window per player, ever
	RebuyOn   RebuyMode = "on"   // a rebuy window every time
)

// Options are the validated table settings the controller runs with.
type Options struct {
	MinBet        int
	MinPlayers    int
	MaxPlayers    int
	ActionTimeout time.Duration
	RebuyMode     RebuyMode
	RebuyWindow   time.Duration
	BuyInMin      int
	BuyInMax      int
}

// State is the table lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Deps are the controller's injected collaborators. Clock, Notifier,
// Rand and Logger have working defaults.
type Deps struct {
	Bankroll Bankroll
	Notifier Notifier
	Clock    quartz.Clock
	Rand     *rand.Rand
	Logger   *log.Logger
}

// Controller owns one table. Every public method and every timer
// callback locks the table mutex, so handlers for the same table are
// fully serialized while separate tables run independently.
type Controller struct {
	mu sync.Mutex

	id       string
	opts     Options
	table    *game.Table
	engine   *game.Engine
	clock    quartz.Clock
	bankroll Bankroll
	notifier Notifier
	logger   *log.Logger

	state State

	// awaiting and turnSeq resolve the race between a turn timer
	// firing and a just-in-time action: both paths check the sequence
	// number under the lock, and whichever loses is a no-op.
	awaiting  *game.Player
	turnSeq   int
	turnTimer *quartz.Timer

	rebuyTimers map[string]*quartz.Timer
	rebuyUsed   map[string]bool
}

// New creates an idle controller for one table.
func New(id string, opts Options, deps Deps) *Controller {
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	logger := deps.Logger.WithPrefix("room").With("table", id)

	c := &Controller{
		id:          id,
		opts:        opts,
		clock:       deps.Clock,
		bankroll:    deps.Bankroll,
		notifier:    deps.Notifier,
		logger:      logger,
		table:       game.NewTable(id, opts.MinBet, deps.Rand, deps.Logger),
		rebuyTimers: make(map[string]*quartz.Timer),
		rebuyUsed:   make(map[string]bool),
	}
	c.engine = game.NewEngine(c.table, deps.Logger)
	return c
}

// ID returns the table id.
func (c *Controller) ID() string { return c.id }

// Options returns the table settings the controller was created with.
func (c *Controller) Options() Options { return c.opts }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AddPlayer buys a user in and seats them. Joining mid-hand parks the
// player until the next hand is dealt. Returns the seated stack.
func (c *Controller) AddPlayer(ctx context.Context, userID, name string, requested int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return 0, ErrTableStopped
	}
	if c.table.PlayerByID(userID) != nil {
		return 0, ErrAlreadySeated
	}
	if len(c.table.Seats) >= c.opts.MaxPlayers {
		return 0, ErrTableFull
	}

	balance, err := c.bankroll.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("bankroll lookup: %w", err)
	}
	amount, err := NormalizeBuyIn(BuyIn{
		Requested: requested,
		Min:       c.opts.BuyInMin,
		Max:       c.opts.BuyInMax,
		Bankroll:  balance,
	})
	if err != nil {
		return 0, err
	}
	if err := c.bankroll.Debit(ctx, userID, amount); err != nil {
		return 0, fmt.Errorf("bankroll debit: %w", err)
	}

	p := &game.Player{ID: userID, Name: name, Stack: amount}
	if c.awaiting != nil {
		// Mid-hand joiners wait for the next deal.
		p.Status = game.StatusPendingRejoin
	}
	if err := c.table.AddPlayer(p); err != nil {
		c.creditLocked(userID, amount)
		return 0, err
	}

	c.logger.Info("player seated", "player", name, "stack", amount)
	return amount, nil
}

// Start transitions the table from idle to running and deals the first
// hand.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateStopped:
		return ErrTableStopped
	case StateRunning:
		return ErrHandInProgress
	}
	if len(c.table.DealtIn()) < c.opts.MinPlayers {
		return ErrNotEnoughPlayers
	}

	c.state = StateRunning
	c.runHands()
	return nil
}

// Act applies an action from the player currently on the clock. Actions
// from anyone else, or after the turn has already been resolved, are
// rejected without mutating anything.
func (c *Controller) Act(playerID string, typ game.ActionType, amount int) game.ActionResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.awaiting == nil || c.awaiting.ID != playerID {
		return game.ActionResult{OK: false, Reason: "not your turn"}
	}

	p := c.awaiting
	res := c.engine.ExecuteAction(game.ActionRequest{Type: typ, Player: p, Amount: amount})
	if !res.OK {
		// Illegal action: the player stays on the clock.
		return res
	}

	c.clearTurn()
	c.afterAction(p, res)
	return res
}

// Rebuy completes an open rebuy window for a busted player. The first
// resolution wins: a rebuy that lands after the window expired is
// rejected, and an expiry that fires after the rebuy was accepted is a
// no-op.
func (c *Controller) Rebuy(ctx context.Context, playerID string, requested int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return 0, ErrTableStopped
	}
	p := c.table.PlayerByID(playerID)
	if p == nil {
		return 0, ErrNotSeated
	}
	if p.Status != game.StatusPendingRebuy {
		return 0, ErrNoRebuyPending
	}

	balance, err := c.bankroll.Balance(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("bankroll lookup: %w", err)
	}
	amount, err := NormalizeBuyIn(BuyIn{
		Requested: requested,
		Min:       c.opts.BuyInMin,
		Max:       c.opts.BuyInMax,
		Bankroll:  balance,
	})
	if err != nil {
		return 0, err
	}
	if err := c.bankroll.Debit(ctx, playerID, amount); err != nil {
		return 0, fmt.Errorf("bankroll debit: %w", err)
	}

	if tm := c.rebuyTimers[playerID]; tm != nil {
		tm.Stop()
		delete(c.rebuyTimers, playerID)
	}
	p.Stack += amount
	c.table.ExpectedChips += amount
	p.Status = game.StatusPendingRejoin

	c.logger.Info("rebuy accepted", "player", p.Name, "amount", amount)

	if c.state == StateRunning && c.awaiting == nil {
		c.runHands()
	}
	return amount, nil
}

// Leave cashes a player out. Mid-hand their seat is folded and reaped
// at the end of the hand, with chips already committed to the pot left
// behind as dead money; the uncommitted stack is refunded immediately.
func (c *Controller) Leave(playerID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.table.PlayerByID(playerID)
	if p == nil {
		return 0, ErrNotSeated
	}

	if tm := c.rebuyTimers[playerID]; tm != nil {
		tm.Stop()
		delete(c.rebuyTimers, playerID)
	}

	if c.awaiting != nil {
		wasAwaited := c.awaiting == p
		if p.Status.InHand() {
			c.engine.ExecuteAction(game.ActionRequest{Type: game.ActionFold, Player: p})
		}
		refund := p.Stack
		p.Stack = 0
		p.Status = game.StatusRemoved
		c.table.ExpectedChips -= refund
		c.creditLocked(playerID, refund)
		c.logger.Info("player left mid-hand", "player", p.Name, "refund", refund)

		if wasAwaited || len(c.table.Contenders()) <= 1 {
			if wasAwaited {
				c.table.LastActed = c.table.OrderIndex(p)
			}
			c.clearTurn()
			c.advanceHand()
		}
		return refund, nil
	}

	refund := c.table.RemoveSeat(p)
	c.creditLocked(playerID, refund)
	c.logger.Info("player left", "player", p.Name, "refund", refund)

	if c.state == StateRunning {
		c.runHands()
	}
	return refund, nil
}

// Stop is the terminal transition: refund outstanding bets to stacks,
// cancel every timer and rebuy offer, cash all seats out through the
// bankroll, and announce game over. Safe to call from any state and
// idempotent.
func (c *Controller) Stop(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked(reason)
}

func (c *Controller) stopLocked(reason string) {
	if c.state == StateStopped {
		return
	}
	c.state = StateStopped
	c.clearTurn()
	for id, tm := range c.rebuyTimers {
		tm.Stop()
		delete(c.rebuyTimers, id)
	}

	// Outstanding bets must never be silently discarded.
	for _, p := range c.table.Seats {
		if p.TotalBet > 0 {
			p.Stack += p.TotalBet
			c.table.Betting.Total -= p.TotalBet
			p.TotalBet = 0
			p.Bet = 0
		}
	}
	if err := c.table.CheckConservation(); err != nil {
		c.logger.Error("conservation check failed at stop", "error", err)
	}

	seats := append([]*game.Player(nil), c.table.Seats...)
	for _, p := range seats {
		refund := c.table.RemoveSeat(p)
		if refund > 0 {
			c.creditLocked(p.ID, refund)
		}
	}

	c.notifier.GameOver(c.id, reason)
	c.logger.Info("table stopped", "reason", reason)
}

// Snapshot renders the table from one player's perspective; hole cards
// are revealed only to their owner. An empty perspective yields the
// spectator view.
func (c *Controller) Snapshot(perspective string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(perspective)
}

// runHands deals hands until one of them needs player input, a rebuy
// window blocks the table, or the table stops. An explicit loop rather
// than recursion: consecutive all-in hands resolve synchronously and
// would otherwise stack.
func (c *Controller) runHands() {
	for {
		if c.state != StateRunning {
			return
		}
		if len(c.rebuyTimers) > 0 {
			// Waiting on an open rebuy window.
			return
		}
		if len(c.table.DealtIn()) < c.opts.MinPlayers {
			c.stopLocked("not enough players")
			return
		}

		if err := c.table.StartHand(uuid.NewString()); err != nil {
			c.logger.Error("failed to start hand", "error", err)
			c.stopLocked("failed to start hand")
			return
		}
		c.engine.PostBlinds()
		c.notifier.HandStarted(c.snapshotLocked(""))

		prog := c.engine.Advance()
		if prog.Kind == game.ProgressAwait {
			c.prompt(prog.Next)
			return
		}
		c.finishHand(prog.Result)
	}
}

// advanceHand asks the state machine what comes next after a mutation
// and either prompts the next player or settles the hand and moves on.
func (c *Controller) advanceHand() {
	prog := c.engine.Advance()
	if prog.Kind == game.ProgressAwait {
		c.prompt(prog.Next)
		return
	}
	c.finishHand(prog.Result)
	c.runHands()
}

func (c *Controller) afterAction(p *game.Player, res game.ActionResult) {
	c.table.LastActed = c.table.OrderIndex(p)
	c.notifier.ActionApplied(c.snapshotLocked(""), p.ID, res)
	c.advanceHand()
}

// prompt puts a player on the clock and arms their action timeout.
func (c *Controller) prompt(p *game.Player) {
	c.awaiting = p
	c.turnSeq++
	seq := c.turnSeq

	deadline := c.clock.Now().Add(c.opts.ActionTimeout)
	c.notifier.PromptAction(Prompt{
		TableID:  c.id,
		PlayerID: p.ID,
		Actions:  c.table.AvailableActions(p),
		Deadline: deadline,
	})
	if c.opts.ActionTimeout > 0 {
		c.turnTimer = c.clock.AfterFunc(c.opts.ActionTimeout, func() {
			c.onActionTimeout(seq)
		})
	}
}

// clearTurn invalidates the current prompt: stops the timer and bumps
// the sequence so an already-fired callback becomes a no-op.
func (c *Controller) clearTurn() {
	if c.turnTimer != nil {
		c.turnTimer.Stop()
		c.turnTimer = nil
	}
	c.turnSeq++
	c.awaiting = nil
}

// onActionTimeout auto-resolves a stalled player: check when legal,
// fold otherwise.
func (c *Controller) onActionTimeout(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.awaiting == nil || seq != c.turnSeq {
		// The action beat the timer, or the table moved on.
		return
	}

	p := c.awaiting
	typ := game.ActionFold
	if c.table.Betting.CurrentMax == p.Bet {
		typ = game.ActionCheck
	}
	c.logger.Info("action timeout", "player", p.Name, "resolved", typ.String())

	res := c.engine.ExecuteAction(game.ActionRequest{Type: typ, Player: p})
	c.clearTurn()
	c.afterAction(p, res)
}

// finishHand settles notifications and the between-hands bookkeeping:
// reap seats that left mid-hand, then park or remove busted stacks.
func (c *Controller) finishHand(result *game.HandResult) {
	c.clearTurn()
	if result != nil {
		c.notifier.HandEnded(c.outcome(result))
	}

	seats := append([]*game.Player(nil), c.table.Seats...)
	for _, p := range seats {
		if p.Status == game.StatusRemoved {
			if refund := c.table.RemoveSeat(p); refund > 0 {
				c.creditLocked(p.ID, refund)
			}
			continue
		}
		if p.Status.Seated() && p.Stack < c.opts.MinBet {
			c.handleBusted(p)
		}
	}
}

// handleBusted parks a below-minimum player behind a rebuy window when
// the table mode allows it, otherwise removes the seat outright.
func (c *Controller) handleBusted(p *game.Player) {
	allowed := c.opts.RebuyMode == RebuyOn ||
		(c.opts.RebuyMode == RebuyOnce && !c.rebuyUsed[p.ID])
	if !allowed || c.opts.RebuyWindow <= 0 {
		refund := c.table.RemoveSeat(p)
		c.creditLocked(p.ID, refund)
		c.logger.Info("busted player removed", "player", p.Name, "refund", refund)
		return
	}

	c.rebuyUsed[p.ID] = true
	p.Status = game.StatusPendingRebuy
	deadline := c.clock.Now().Add(c.opts.RebuyWindow)
	playerID := p.ID
	c.rebuyTimers[playerID] = c.clock.AfterFunc(c.opts.RebuyWindow, func() {
		c.onRebuyExpired(playerID)
	})
	c.notifier.RebuyOffered(c.id, playerID, deadline)
	c.logger.Info("rebuy window opened", "player", p.Name, "deadline", deadline)
}

// onRebuyExpired removes a seat whose rebuy window ran out. The status
// flag is the authority: if the rebuy was accepted first this is a
// no-op.
func (c *Controller) onRebuyExpired(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return
	}
	p := c.table.PlayerByID(playerID)
	if p == nil || p.Status != game.StatusPendingRebuy {
		return
	}
	delete(c.rebuyTimers, playerID)

	refund := c.table.RemoveSeat(p)
	if refund > 0 {
		c.creditLocked(playerID, refund)
	}
	c.logger.Info("rebuy window expired", "player", p.Name)

	if c.state == StateRunning && c.awaiting == nil {
		c.runHands()
	}
}

// creditLocked pushes chips back to the bankroll. Failures are logged
// and never roll back in-memory chip state.
func (c *Controller) creditLocked(userID string, amount int) {
	if err := c.bankroll.Credit(context.Background(), userID, amount); err != nil {
		c.logger.Error("bankroll credit failed",
			"player", userID, "amount", amount, "error", err)
	}
}

func (c *Controller) snapshotLocked(perspective string) Snapshot {
	t := c.table
	snap := Snapshot{
		TableID: c.id,
		HandID:  t.HandID,
		HandNum: t.HandNum,
		Phase:   t.Phase().String(),
		Board:   deck.Strings(t.Board),
		Pot:     t.Betting.Total,
		Seats:   make([]SeatView, 0, len(t.Seats)),
	}
	if c.state == StateIdle {
		snap.Phase = "idle"
	}
	if c.awaiting != nil {
		snap.Awaiting = c.awaiting.ID
	}

	for i, p := range t.Seats {
		view := SeatView{
			PlayerID: p.ID,
			Name:     p.Name,
			Seat:     p.Seat,
			Stack:    p.Stack,
			Bet:      p.Bet,
			Status:   p.Status.String(),
			Button:   i == t.Button,
		}
		if p.ID == perspective {
			view.Cards = deck.Strings(p.HoleCards)
		}
		snap.Seats = append(snap.Seats, view)
	}

	if perspective != "" {
		if p := t.PlayerByID(perspective); p != nil {
			if toCall := t.Betting.CurrentMax - p.Bet; toCall > 0 {
				snap.ToCall = toCall
			}
		}
	}
	return snap
}

func (c *Controller) outcome(result *game.HandResult) Outcome {
	out := Outcome{
		TableID: c.id,
		HandID:  result.HandID,
		Reason:  result.Reason,
		Board:   deck.Strings(c.table.Board),
		Pots:    make([]PotView, 0, len(result.Pots)),
	}
	for _, pot := range result.Pots {
		view := PotView{Amount: pot.Amount}
		for _, w := range pot.Winners {
			view.Winners = append(view.Winners, PayoutView{
				PlayerID: w.Player.ID,
				Name:     w.Player.Name,
				Amount:   w.Amount,
			})
		}
		out.Pots = append(out.Pots, view)
	}
	for _, p := range c.table.Seats {
		if p.Contributed > 0 {
			out.Contributions = append(out.Contributions, PayoutView{
				PlayerID: p.ID,
				Name:     p.Name,
				Amount:   p.Contributed,
			})
		}
	}
	return out
}
