// Package evaluator ranks 7-card Texas Hold'em hands using rank/suit
// bitmasks. Lower HandRank values are stronger hands.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/cardroom/holdem/internal/deck"
)

// Hand type constants (lower number = stronger hand)
const (
	RoyalFlushType    = 1
	StraightFlushType = 2
	FourOfAKindType   = 3
	FullHouseType     = 4
	FlushType         = 5
	StraightType      = 6
	ThreeOfAKindType  = 7
	TwoPairType       = 8
	OnePairType       = 9
	HighCardType      = 10
)

// HandRank represents a poker hand ranking with embedded tiebreak score.
// Encoded as type<<20 | tiebreak, so lower values always win.
type HandRank int

// Type returns the hand type (pair, flush, etc.)
func (h HandRank) Type() int {
	return int(h) >> 20
}

// Compare returns 1 if h is stronger, -1 if other is stronger, 0 if equal.
func (h HandRank) Compare(other HandRank) int {
	if h < other {
		return 1
	} else if h > other {
		return -1
	}
	return 0
}

// String returns the readable name of the hand
func (h HandRank) String() string {
	switch h.Type() {
	case RoyalFlushType:
		return "Royal Flush"
	case StraightFlushType:
		return "Straight Flush"
	case FourOfAKindType:
		return "Four of a Kind"
	case FullHouseType:
		return "Full House"
	case FlushType:
		return "Flush"
	case StraightType:
		return "Straight"
	case ThreeOfAKindType:
		return "Three of a Kind"
	case TwoPairType:
		return "Two Pair"
	case OnePairType:
		return "One Pair"
	case HighCardType:
		return "High Card"
	default:
		return "Unknown"
	}
}

// Evaluate ranks the best 5-card hand from exactly 7 cards (2 hole + 5
// board). Malformed input (wrong count, duplicate cards) is an error so
// callers can isolate a bad hand without corrupting the showdown.
func Evaluate(cards []deck.Card) (HandRank, error) {
	if len(cards) != 7 {
		return 0, fmt.Errorf("evaluate: want 7 cards, got %d", len(cards))
	}

	// One 13-bit rank mask per suit; bit r set means rank r+2 present.
	var suits [4]uint16
	for _, c := range cards {
		if c.Rank < deck.Two || c.Rank > deck.Ace || c.Suit < deck.Clubs || c.Suit > deck.Spades {
			return 0, fmt.Errorf("evaluate: invalid card %v", c)
		}
		bit := uint16(1) << (c.Rank - deck.Two)
		if suits[c.Suit]&bit != 0 {
			return 0, fmt.Errorf("evaluate: duplicate card %s", c)
		}
		suits[c.Suit] |= bit
	}

	ranks := suits[0] | suits[1] | suits[2] | suits[3]

	// Flush detection: at most one suit can hold 5+ of 7 cards.
	var flushRanks uint16
	for _, sm := range suits {
		if bits.OnesCount16(sm) >= 5 {
			flushRanks = sm
			break
		}
	}

	if flushRanks != 0 {
		if high := straightHigh(flushRanks); high != 0 {
			if high == deck.Ace {
				return rank(RoyalFlushType, 0), nil
			}
			return rank(StraightFlushType, encode(high)), nil
		}
	}

	var counts [15]int
	for _, sm := range suits {
		for r := deck.Two; r <= deck.Ace; r++ {
			if sm&(1<<(r-deck.Two)) != 0 {
				counts[r]++
			}
		}
	}

	var quad, trip, trip2, pairHi, pairLo deck.Rank
	for r := deck.Ace; r >= deck.Two; r-- {
		switch counts[r] {
		case 4:
			if quad == 0 {
				quad = r
			}
		case 3:
			if trip == 0 {
				trip = r
			} else if trip2 == 0 {
				trip2 = r
			}
		case 2:
			if pairHi == 0 {
				pairHi = r
			} else if pairLo == 0 {
				pairLo = r
			}
		}
	}

	if quad != 0 {
		kicker := topRanks(ranks, 1, quad)
		return rank(FourOfAKindType, encode(quad, kicker[0])), nil
	}

	if trip != 0 && (pairHi != 0 || trip2 != 0) {
		// With two trips the lower one fills the house.
		pair := pairHi
		if trip2 > pair {
			pair = trip2
		}
		return rank(FullHouseType, encode(trip, pair)), nil
	}

	if flushRanks != 0 {
		top := maskTop(flushRanks, 5)
		return rank(FlushType, encode(top...)), nil
	}

	if high := straightHigh(ranks); high != 0 {
		return rank(StraightType, encode(high)), nil
	}

	if trip != 0 {
		kickers := topRanks(ranks, 2, trip)
		return rank(ThreeOfAKindType, encode(trip, kickers[0], kickers[1])), nil
	}

	if pairHi != 0 && pairLo != 0 {
		kicker := topRanks(ranks, 1, pairHi, pairLo)
		return rank(TwoPairType, encode(pairHi, pairLo, kicker[0])), nil
	}

	if pairHi != 0 {
		kickers := topRanks(ranks, 3, pairHi)
		return rank(OnePairType, encode(pairHi, kickers[0], kickers[1], kickers[2])), nil
	}

	top := maskTop(ranks, 5)
	return rank(HighCardType, encode(top...)), nil
}

func rank(handType, tiebreak int) HandRank {
	return HandRank(handType<<20 | tiebreak)
}

// encode packs ranks into nibbles as 15-rank, so higher ranks produce
// lower values and lexicographic comparison matches hand strength.
func encode(ranks ...deck.Rank) int {
	v := 0
	for _, r := range ranks {
		v = v<<4 | int(15-r)
	}
	return v
}

// straightHigh returns the high rank of the best straight in the mask,
// or 0 if there is none. The wheel (A-2-3-4-5) counts as 5-high.
func straightHigh(mask uint16) deck.Rank {
	run := uint16(0x1F00) // A-K-Q-J-T
	for high := deck.Ace; high >= deck.Six; high-- {
		if mask&run == run {
			return high
		}
		run >>= 1
	}
	// A,2,3,4,5
	if mask&0x100F == 0x100F {
		return deck.Five
	}
	return 0
}

// topRanks returns the n highest ranks in the mask, skipping excluded ranks.
func topRanks(mask uint16, n int, exclude ...deck.Rank) []deck.Rank {
	out := make([]deck.Rank, 0, n)
	for r := deck.Ace; r >= deck.Two && len(out) < n; r-- {
		if mask&(1<<(r-deck.Two)) == 0 {
			continue
		}
		skip := false
		for _, ex := range exclude {
			if r == ex {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, r)
		}
	}
	return out
}

// maskTop returns the n highest ranks present in the mask.
func maskTop(mask uint16, n int) []deck.Rank {
	return topRanks(mask, n)
}
