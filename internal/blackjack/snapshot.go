package blackjack

// PlayerSnapshot is a read-only view of one seat.
type PlayerSnapshot struct {
	Name      string `json:"name"`
	Hand      string `json:"hand"`
	HandValue int    `json:"hand_value"`
	Status    string `json:"status"`
}

// Snapshot is a read-only view of a session for the admin API and the
// dashboard. Nothing in the game depends on it being read.
type Snapshot struct {
	Channel      string           `json:"channel"`
	State        string           `json:"state"`
	GameID       string           `json:"game_id,omitempty"`
	PlayerCount  int              `json:"player_count"`
	MaxPlayers   int              `json:"max_players"`
	CanJoin      bool             `json:"can_join"`
	Players      []PlayerSnapshot `json:"players,omitempty"`
	DealerUpCard string           `json:"dealer_up_card,omitempty"`
}

// Snapshot captures the current session state. The dealer's hole card stays
// hidden until the dealer's turn has run.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Channel:     s.channel,
		State:       s.state.String(),
		GameID:      s.gameID,
		PlayerCount: len(s.players),
		MaxPlayers:  s.maxPlayers,
		CanJoin:     s.CanJoin(),
	}

	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			Name:      p.Name,
			Hand:      p.Hand.String(),
			HandValue: p.Hand.Value(),
			Status:    p.Status.String(),
		})
	}

	if cards := s.dealer.Cards(); len(cards) > 0 {
		if s.state == StateFinished {
			snap.DealerUpCard = s.dealer.String()
		} else {
			snap.DealerUpCard = cards[0].String() + " [?]"
		}
	}
	return snap
}
