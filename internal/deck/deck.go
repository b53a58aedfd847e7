package deck

import (
	rand "math/rand/v2"

	"github.com/chatjack/chatjack/internal/randutil"
)

// Deck is an ordered sequence of cards consumed from the top. A fresh deck
// holds the standard 52 cards in shuffled order.
//
// Deal never fails: an exhausted deck is rebuilt to a full 52 and reshuffled
// before the next card comes off. Card counting across that boundary is
// broken, which is accepted: a chat game has no betting riding on it.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a shuffled 52-card deck using the provided rng. A nil rng
// falls back to a wall-clock seed.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = randutil.New()
	}
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.fill()
	d.Shuffle()
	return d
}

// NewStacked creates a deck that deals the given cards in order. Used by
// tests that need a known sequence; if the stack runs out, Deal falls back
// to a full reshuffled deck like any exhausted deck.
func NewStacked(cards ...Card) *Deck {
	d := &Deck{
		cards: make([]Card, len(cards)),
		rng:   randutil.New(),
	}
	copy(d.cards, cards)
	return d
}

func (d *Deck) fill() {
	d.cards = d.cards[:0]
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// Shuffle randomizes the order of the remaining cards using a Fisher-Yates
// pass, giving every permutation equal probability.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top card. An empty deck is rebuilt to a full
// shuffled 52 first, so Deal never fails.
func (d *Deck) Deal() Card {
	if len(d.cards) == 0 {
		d.fill()
		d.Shuffle()
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card
}

// Reset restores the deck to a full shuffled 52 cards.
func (d *Deck) Reset() {
	d.fill()
	d.Shuffle()
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
