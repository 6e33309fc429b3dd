package deck

import "math/rand"

// Deck represents a deck of playing cards. The RNG is injected so hands
// can be replayed deterministically.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a shuffled 52-card deck using the given RNG.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: fullDeck(),
		rng:   rng,
	}
	d.Shuffle()
	return d
}

// NewOrdered creates a deck that deals the given cards in order.
// Used by tests to rig boards and hole cards.
func NewOrdered(cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

func fullDeck() []Card {
	cards := make([]Card, 0, 52)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card from the deck.
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the deck.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		if card, ok := d.Deal(); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// Burn discards the top card before a street is dealt.
func (d *Deck) Burn() {
	d.Deal()
}

// Reset restores the deck to a full 52-card deck and shuffles it.
func (d *Deck) Reset() {
	d.cards = fullDeck()
	d.Shuffle()
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
