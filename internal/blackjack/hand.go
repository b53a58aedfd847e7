// Package blackjack implements the per-channel game session: hand
// evaluation, the table state machine, player admission and result
// computation. Sessions are not safe for concurrent use; the bot
// orchestrator serializes every mutation behind a single mutex, which
// mirrors the single-threaded event model the rules assume.
package blackjack

import (
	"fmt"
	"strings"

	"github.com/chatjack/chatjack/internal/deck"
)

// Hand is an ordered sequence of cards owned by one participant. Display
// preserves deal order; the value does not depend on it.
type Hand struct {
	cards []deck.Card
}

// NewHand creates an empty hand.
func NewHand() *Hand {
	return &Hand{}
}

// AddCard appends a card to the hand. There is no upper bound here; busting
// is a derived query, not a blocked action.
func (h *Hand) AddCard(c deck.Card) {
	h.cards = append(h.cards, c)
}

// Cards returns a copy of the cards in deal order.
func (h *Hand) Cards() []deck.Card {
	out := make([]deck.Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Len returns the number of cards in the hand.
func (h *Hand) Len() int {
	return len(h.cards)
}

// Value returns the soft-ace adjusted total: every ace starts at 11, and
// while the total exceeds 21 with an ace still counted as 11, one such ace
// is reduced to 1. Recomputation is idempotent.
func (h *Hand) Value() int {
	value := 0
	aces := 0
	for _, c := range h.cards {
		if c.IsAce() {
			aces++
		}
		value += c.Value()
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value
}

// IsSoft returns true if the hand contains an ace still counted as 11.
func (h *Hand) IsSoft() bool {
	value := 0
	aces := 0
	for _, c := range h.cards {
		if c.IsAce() {
			aces++
		}
		value += c.Value()
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return aces > 0
}

// IsBust returns true if the hand value exceeds 21.
func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack returns true only for a natural: exactly two cards totalling
// 21. A three-card 21 is not a blackjack.
func (h *Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.Value() == 21
}

// String renders the hand for chat, e.g. "A♠ K♥".
func (h *Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// DisplayValue renders the total, flagging busts, e.g. "23 (BUST)".
func (h *Hand) DisplayValue() string {
	if h.IsBust() {
		return fmt.Sprintf("%d (BUST)", h.Value())
	}
	return fmt.Sprintf("%d", h.Value())
}
