package bot

import (
	"sort"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/deck"
)

// Registry maps channels to their game sessions. Sessions are created on
// first use and live for the life of the process; they are never removed,
// only reset. The registry has no locking of its own, every access goes
// through the bot's mutex.
//
// Scheduled callbacks hold a channel name, not a session pointer, and look
// the session up here when they fire.
type Registry struct {
	maxPlayers int
	newDeck    func() *deck.Deck
	sessions   map[string]*blackjack.Session
}

// NewRegistry creates a registry. newDeck supplies the deck for each new
// session; nil selects a wall-clock seeded deck.
func NewRegistry(maxPlayers int, newDeck func() *deck.Deck) *Registry {
	if newDeck == nil {
		newDeck = func() *deck.Deck { return deck.New(nil) }
	}
	return &Registry{
		maxPlayers: maxPlayers,
		newDeck:    newDeck,
		sessions:   make(map[string]*blackjack.Session),
	}
}

// Get returns the session for a channel if one exists.
func (r *Registry) Get(channel string) (*blackjack.Session, bool) {
	s, ok := r.sessions[channel]
	return s, ok
}

// GetOrCreate returns the channel's session, creating it in the waiting
// state if the channel has never been seen. Never returns nil.
func (r *Registry) GetOrCreate(channel string) *blackjack.Session {
	if s, ok := r.sessions[channel]; ok {
		return s
	}
	s := blackjack.NewSession(channel, r.newDeck(), r.maxPlayers)
	r.sessions[channel] = s
	return s
}

// Channels returns every known channel in sorted order.
func (r *Registry) Channels() []string {
	out := make([]string, 0, len(r.sessions))
	for ch := range r.sessions {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
