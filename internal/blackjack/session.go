package blackjack

import (
	"github.com/google/uuid"

	"github.com/chatjack/chatjack/internal/deck"
)

// State is the session lifecycle state.
type State int

const (
	StateWaiting State = iota
	StateDealing
	StatePlaying
	StateDealerTurn
	StateFinished
)

// String returns the string representation of a state
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateDealing:
		return "dealing"
	case StatePlaying:
		return "playing"
	case StateDealerTurn:
		return "dealer_turn"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PlayerStatus tracks a seated player's progress through the round.
type PlayerStatus int

const (
	StatusPlaying PlayerStatus = iota
	StatusStanding
	StatusBusted
)

// String returns the string representation of a player status
func (ps PlayerStatus) String() string {
	switch ps {
	case StatusPlaying:
		return "playing"
	case StatusStanding:
		return "standing"
	case StatusBusted:
		return "busted"
	default:
		return "unknown"
	}
}

// Player is one seat at the table: the username exactly as the transport
// delivered it, the hand, and the turn status.
type Player struct {
	Name   string
	Hand   *Hand
	Status PlayerStatus
}

// Outcome is the result of one player's round against the dealer.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// Result is the per-player record produced at the end of a round and handed
// to the stats tracker.
type Result struct {
	Username  string  `json:"username"`
	HandValue int     `json:"hand_value"`
	Outcome   Outcome `json:"outcome"`
	Blackjack bool    `json:"blackjack"`
	Bust      bool    `json:"bust"`
	Hand      string  `json:"hand"`
}

// DefaultMaxPlayers is the seat limit for a session.
const DefaultMaxPlayers = 6

// Session is one channel's live blackjack round. It owns the deck, the
// dealer hand and the seated players, and advances through
// waiting -> dealing -> playing -> dealer_turn -> finished.
//
// Reset clears the session in place and bumps the generation counter.
// Scheduled callbacks capture the generation they were armed under and
// must no-op when it no longer matches, which makes a late-firing timer
// harmless regardless of how many cancel paths were missed.
type Session struct {
	channel    string
	deck       *deck.Deck
	players    []*Player
	seats      map[string]*Player
	dealer     *Hand
	state      State
	maxPlayers int
	generation uint64
	gameID     string
}

// NewSession creates a session for a channel in the waiting state.
// maxPlayers <= 0 selects the default seat limit.
func NewSession(channel string, d *deck.Deck, maxPlayers int) *Session {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Session{
		channel:    channel,
		deck:       d,
		seats:      make(map[string]*Player),
		dealer:     NewHand(),
		state:      StateWaiting,
		maxPlayers: maxPlayers,
	}
}

// Channel returns the channel this session belongs to.
func (s *Session) Channel() string { return s.channel }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// MaxPlayers returns the seat limit.
func (s *Session) MaxPlayers() int { return s.maxPlayers }

// Generation returns the reset epoch. Callbacks scheduled against this
// session must compare it before acting.
func (s *Session) Generation() uint64 { return s.generation }

// GameID returns the unique ID assigned to the current round at deal time,
// or "" before cards have been dealt.
func (s *Session) GameID() string { return s.gameID }

// PlayerCount returns the number of seated players.
func (s *Session) PlayerCount() int { return len(s.players) }

// Players returns the seated players in join order.
func (s *Session) Players() []*Player {
	out := make([]*Player, len(s.players))
	copy(out, s.players)
	return out
}

// Dealer returns the dealer's hand.
func (s *Session) Dealer() *Hand { return s.dealer }

// CanJoin reports whether a new player could be seated right now.
func (s *Session) CanJoin() bool {
	return s.state == StateWaiting && len(s.players) < s.maxPlayers
}

// AddPlayer seats a player. Only valid while waiting; a full table or a
// duplicate username is rejected without mutating anything.
func (s *Session) AddPlayer(name string) error {
	if s.state != StateWaiting {
		return ErrNotJoinable
	}
	if len(s.players) >= s.maxPlayers {
		return ErrGameFull
	}
	if _, ok := s.seats[name]; ok {
		return ErrAlreadyJoined
	}

	player := &Player{Name: name, Hand: NewHand(), Status: StatusPlaying}
	s.players = append(s.players, player)
	s.seats[name] = player
	return nil
}

// DealInitialCards deals two cards round-robin (one to each player in join
// order, then the dealer, twice) and moves the session to playing. Any
// player dealt a natural blackjack is force-stood as part of dealing, so a
// natural never waits on a hit/stand that can't improve it.
func (s *Session) DealInitialCards() error {
	if s.state != StateWaiting {
		return ErrNotJoinable
	}
	if len(s.players) == 0 {
		return ErrNoPlayers
	}

	s.state = StateDealing
	s.gameID = uuid.NewString()

	for round := 0; round < 2; round++ {
		for _, p := range s.players {
			p.Hand.AddCard(s.deck.Deal())
		}
		s.dealer.AddCard(s.deck.Deal())
	}

	for _, p := range s.players {
		if p.Hand.IsBlackjack() {
			p.Status = StatusStanding
		}
	}

	s.state = StatePlaying
	return nil
}

// Hit deals one card to the named player. Busting flips the player's status;
// nothing is mutated on a rejection.
func (s *Session) Hit(name string) (*Player, error) {
	player, err := s.actingPlayer(name)
	if err != nil {
		return nil, err
	}

	player.Hand.AddCard(s.deck.Deal())
	if player.Hand.IsBust() {
		player.Status = StatusBusted
	}
	return player, nil
}

// Stand ends the named player's turn.
func (s *Session) Stand(name string) (*Player, error) {
	player, err := s.actingPlayer(name)
	if err != nil {
		return nil, err
	}

	player.Status = StatusStanding
	return player, nil
}

func (s *Session) actingPlayer(name string) (*Player, error) {
	if s.state != StatePlaying {
		return nil, ErrNoActiveGame
	}
	player, ok := s.seats[name]
	if !ok {
		return nil, ErrNotInGame
	}
	if player.Status != StatusPlaying {
		return nil, ErrTurnOver
	}
	return player, nil
}

// AllPlayersFinished reports whether every seat has left the playing status.
func (s *Session) AllPlayersFinished() bool {
	for _, p := range s.players {
		if p.Status == StatusPlaying {
			return false
		}
	}
	return true
}

// PlayDealer runs the dealer's turn: hit on 16 or less, stand on 17 or more
// (soft 17 stands). The session ends in the finished state.
func (s *Session) PlayDealer() error {
	if s.state != StatePlaying {
		return ErrNoActiveGame
	}

	s.state = StateDealerTurn
	for s.dealer.Value() < 17 {
		s.dealer.AddCard(s.deck.Deal())
	}
	s.state = StateFinished
	return nil
}

// Results computes the outcome for every player in join order. A busted
// player loses regardless of the dealer; otherwise a dealer bust wins,
// higher total wins, equal pushes.
func (s *Session) Results() ([]Result, error) {
	if s.state != StateFinished {
		return nil, ErrNotFinished
	}

	dealerValue := s.dealer.Value()
	dealerBust := s.dealer.IsBust()

	results := make([]Result, 0, len(s.players))
	for _, p := range s.players {
		value := p.Hand.Value()
		var outcome Outcome
		switch {
		case p.Status == StatusBusted:
			outcome = OutcomeLoss
		case dealerBust:
			outcome = OutcomeWin
		case value > dealerValue:
			outcome = OutcomeWin
		case value == dealerValue:
			outcome = OutcomePush
		default:
			outcome = OutcomeLoss
		}

		results = append(results, Result{
			Username:  p.Name,
			HandValue: value,
			Outcome:   outcome,
			Blackjack: p.Hand.IsBlackjack(),
			Bust:      p.Status == StatusBusted,
			Hand:      p.Hand.String(),
		})
	}
	return results, nil
}

// Reset clears the session in place back to waiting: seats emptied, fresh
// dealer hand, fresh deck, generation bumped so any outstanding scheduled
// callback goes stale. Resetting an already-waiting session is a no-op in
// effect but still bumps the generation; Reset never fails.
func (s *Session) Reset() {
	s.players = nil
	s.seats = make(map[string]*Player)
	s.dealer = NewHand()
	s.state = StateWaiting
	s.gameID = ""
	s.deck.Reset()
	s.generation++
}
