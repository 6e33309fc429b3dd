package game

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Payout is one winner's share of a pot.
type Payout struct {
	Player *Player
	Amount int
}

// Pot is an immutable result of side-pot construction: an amount, the
// players still able to win it, and (after distribution) its winners.
type Pot struct {
	Amount   int
	Eligible []*Player
	Winners  []Payout
}

// BuildSidePots constructs the main pot and side pots from every
// player's whole-hand contribution. Contributions are consumed tier by
// tier, smallest first, so any number of distinct all-in levels is
// handled. Folded and removed contributors pay into a pot without being
// eligible to win it.
func BuildSidePots(players []*Player) []Pot {
	type entry struct {
		player    *Player
		remaining int
	}

	working := make([]entry, 0, len(players))
	for _, p := range players {
		if p.TotalBet > 0 {
			working = append(working, entry{player: p, remaining: p.TotalBet})
		}
	}
	if len(working) == 0 {
		return nil
	}

	// Ascending by contribution; seat order breaks ties so pot
	// eligibility lists are deterministic.
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].remaining < working[j].remaining
	})

	var pots []Pot
	for len(working) > 0 {
		tier := working[0].remaining
		pot := Pot{Amount: tier * len(working)}
		for _, en := range working {
			if en.player.Status.InHand() {
				pot.Eligible = append(pot.Eligible, en.player)
			}
		}
		pots = append(pots, pot)

		next := working[:0]
		for _, en := range working {
			en.remaining -= tier
			if en.remaining > 0 {
				next = append(next, en)
			}
		}
		working = next
	}
	return pots
}

// DistributePots resolves each pot's winners: the eligible contenders
// holding the best-ranked hand, ties included. If every eligible player
// folded (dead-money pot), the full eligible set splits it. Each pot is
// paid out to the last chip: floor shares first, then the remainder one
// chip at a time in winner-list order.
func DistributePots(pots []Pot, contenders []*Player) {
	inContention := make(map[*Player]bool, len(contenders))
	for _, c := range contenders {
		inContention[c] = true
	}

	for i := range pots {
		pot := &pots[i]
		if pot.Amount <= 0 || len(pot.Eligible) == 0 {
			continue
		}

		var best []*Player
		for _, p := range pot.Eligible {
			if !inContention[p] || p.Result == nil {
				continue
			}
			if len(best) == 0 {
				best = []*Player{p}
				continue
			}
			switch p.Result.Compare(*best[0].Result) {
			case 1:
				best = []*Player{p}
			case 0:
				best = append(best, p)
			}
		}

		winners := best
		if len(winners) == 0 {
			winners = pot.Eligible
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		pot.Winners = make([]Payout, len(winners))
		for j, w := range winners {
			amount := share
			if j < remainder {
				amount++
			}
			pot.Winners[j] = Payout{Player: w, Amount: amount}
		}
	}
}

// PotTotal sums the amounts across a set of pots.
func PotTotal(pots []Pot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}

// logPots emits a debug line per pot; helpful when reconstructing a
// disputed hand from logs.
func logPots(logger *log.Logger, pots []Pot) {
	for i, pot := range pots {
		names := make([]string, len(pot.Eligible))
		for j, p := range pot.Eligible {
			names[j] = p.Name
		}
		logger.Debug("pot settled", "pot", i, "amount", pot.Amount, "eligible", names)
	}
}
