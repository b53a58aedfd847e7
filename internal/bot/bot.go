// Package bot is the game orchestrator: it receives chat messages, drives
// each channel's blackjack session through its lifecycle, schedules the
// automation timers, and replies through the chat sender.
//
// All session state is mutated under one mutex, so chat handlers and timer
// callbacks never interleave mid-round. Every scheduled callback captures
// the session generation it was armed under and is a no-op once a reset
// has bumped it.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/stats"
	"github.com/chatjack/chatjack/internal/twitch"
)

// Sender delivers a chat line to a channel. Implementations must not
// block; the bot calls Say while holding its mutex.
type Sender interface {
	Say(channel, text string)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(channel, text string)

// Say calls f.
func (f SenderFunc) Say(channel, text string) { f(channel, text) }

// Middleware wraps a Sender. Middleware is applied once at construction;
// handlers always go through the decorated sender.
type Middleware func(Sender) Sender

// LogSends is middleware that logs every outbound line at debug level.
func LogSends(logger *log.Logger) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(channel, text string) {
			logger.Debug("Sending chat message", "channel", channel, "text", text)
			next.Say(channel, text)
		})
	}
}

// Options holds the table size and automation timers.
type Options struct {
	MaxPlayers  int
	JoinWindow  time.Duration
	DealerDelay time.Duration
	ResetDelay  time.Duration
	AutoPlay    time.Duration

	AdInterval    time.Duration
	AdMinMessages int
	AdMessages    []string
}

// channelTimers holds the pending automation for one channel. At most one
// of each kind is armed at a time.
type channelTimers struct {
	join     *quartz.Timer
	autoPlay *quartz.Timer
	dealer   *quartz.Timer
	reset    *quartz.Timer
	joinOpen bool
}

// Bot dispatches chat commands to game sessions.
type Bot struct {
	sender   Sender
	tracker  *stats.Tracker
	logger   *log.Logger
	clock    quartz.Clock
	opts     Options
	ads      *adThrottle
	registry *Registry

	mu     sync.Mutex
	timers map[string]*channelTimers
}

// New creates a bot. Middleware decorates the sender in the order given,
// first listed wraps outermost.
func New(sender Sender, registry *Registry, tracker *stats.Tracker, logger *log.Logger, clock quartz.Clock, opts Options, mw ...Middleware) *Bot {
	for i := len(mw) - 1; i >= 0; i-- {
		sender = mw[i](sender)
	}
	return &Bot{
		sender:   sender,
		tracker:  tracker,
		logger:   logger.WithPrefix("bot"),
		clock:    clock,
		opts:     opts,
		ads:      newAdThrottle(clock, opts.AdInterval, opts.AdMinMessages, opts.AdMessages),
		registry: registry,
		timers:   make(map[string]*channelTimers),
	}
}

// HandleMessage processes one chat message. Non-command chatter still
// feeds the ad throttle.
func (b *Bot) HandleMessage(msg twitch.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ad, ok := b.ads.observe(msg.Channel); ok {
		b.sender.Say(msg.Channel, ad)
	}

	cmd, args := ParseCommand(msg.Text)
	if cmd == CmdUnknown {
		return
	}
	b.logger.Debug("Handling command", "channel", msg.Channel, "user", msg.User, "command", cmd)

	switch cmd {
	case CmdDeal:
		b.handleDeal(msg)
	case CmdJoin:
		b.handleJoin(msg)
	case CmdHit:
		b.handleHit(msg)
	case CmdStand:
		b.handleStand(msg)
	case CmdHand:
		b.handleHand(msg)
	case CmdStatus:
		b.handleStatus(msg)
	case CmdStats:
		target := msg.User
		if len(args) > 0 {
			target = strings.ToLower(strings.TrimPrefix(args[0], "@"))
		}
		b.sender.Say(msg.Channel, b.tracker.Summary(msg.Channel, target))
	case CmdMyStats:
		b.sender.Say(msg.Channel, b.tracker.Detailed(msg.Channel, msg.User))
	case CmdLeaderboard:
		b.handleLeaderboard(msg, args)
	case CmdReset:
		b.handleReset(msg)
	case CmdHelp:
		b.sender.Say(msg.Channel, "Blackjack commands: !deal !join !hit !stand !hand !status !stats [user] !mystats !leaderboard [wins|winrate|blackjacks|games|streak] | mods: !reset")
	}
}

func (b *Bot) channelTimersFor(channel string) *channelTimers {
	t, ok := b.timers[channel]
	if !ok {
		t = &channelTimers{}
		b.timers[channel] = t
	}
	return t
}

func stopTimer(t **quartz.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (b *Bot) stopAllTimers(channel string) {
	t := b.channelTimersFor(channel)
	stopTimer(&t.join)
	stopTimer(&t.autoPlay)
	stopTimer(&t.dealer)
	stopTimer(&t.reset)
	t.joinOpen = false
}

func (b *Bot) handleDeal(msg twitch.ChatMessage) {
	s := b.registry.GetOrCreate(msg.Channel)
	t := b.channelTimersFor(msg.Channel)

	if t.joinOpen {
		// A second !deal during the window just seats the caller.
		b.handleJoin(msg)
		return
	}
	if s.State() != blackjack.StateWaiting {
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s A game is already in progress!", msg.DisplayName))
		return
	}

	if err := s.AddPlayer(msg.User); err != nil {
		b.logger.Error("Failed to seat dealer initiator", "channel", msg.Channel, "user", msg.User, "error", err)
		return
	}

	t.joinOpen = true
	gen := s.Generation()
	t.join = b.clock.AfterFunc(b.opts.JoinWindow, func() {
		b.onJoinWindowClosed(msg.Channel, gen)
	})

	b.sender.Say(msg.Channel, fmt.Sprintf(
		"🃏 %s started a blackjack game! Type !join in the next %d seconds to grab a seat (%d max).",
		msg.DisplayName, int(b.opts.JoinWindow.Seconds()), s.MaxPlayers()))
}

func (b *Bot) handleJoin(msg twitch.ChatMessage) {
	t := b.channelTimersFor(msg.Channel)
	if !t.joinOpen {
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s No game is forming right now. Type !deal to start one!", msg.DisplayName))
		return
	}

	s := b.registry.GetOrCreate(msg.Channel)
	switch err := s.AddPlayer(msg.User); {
	case errors.Is(err, blackjack.ErrAlreadyJoined):
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s You're already seated!", msg.DisplayName))
	case errors.Is(err, blackjack.ErrGameFull):
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s The table is full (%d seats).", msg.DisplayName, s.MaxPlayers()))
	case err != nil:
		b.logger.Warn("Join rejected", "channel", msg.Channel, "user", msg.User, "error", err)
	default:
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s is in! (%d/%d seats)", msg.DisplayName, s.PlayerCount(), s.MaxPlayers()))
		if s.PlayerCount() == s.MaxPlayers() {
			// Full table starts immediately, the join timer is spent.
			stopTimer(&t.join)
			t.joinOpen = false
			b.sender.Say(msg.Channel, "Table is full, dealing now!")
			b.dealRound(msg.Channel, s)
		}
	}
}

// onJoinWindowClosed fires when the join window expires and deals the
// round.
func (b *Bot) onJoinWindowClosed(channel string, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.registry.Get(channel)
	if !ok || s.Generation() != gen {
		return
	}
	t := b.channelTimersFor(channel)
	t.joinOpen = false
	t.join = nil

	if s.PlayerCount() == 0 {
		b.sender.Say(channel, "Nobody joined, game cancelled. Type !deal to try again.")
		return
	}
	b.dealRound(channel, s)
}

// dealRound deals the opening hands and arms the auto-play timer. Caller
// holds b.mu.
func (b *Bot) dealRound(channel string, s *blackjack.Session) {
	if err := s.DealInitialCards(); err != nil {
		b.logger.Error("Failed to deal", "channel", channel, "error", err)
		return
	}
	b.logger.Info("Round dealt", "channel", channel, "game_id", s.GameID(), "players", s.PlayerCount())

	lines := make([]string, 0, s.PlayerCount())
	for _, p := range s.Players() {
		suffix := ""
		if p.Hand.IsBlackjack() {
			suffix = " BLACKJACK! 🎉"
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)%s", p.Name, p.Hand, p.Hand.DisplayValue(), suffix))
	}
	b.sender.Say(channel, "Cards are out! "+strings.Join(lines, " | "))
	b.sender.Say(channel, fmt.Sprintf("Dealer shows: %s [?] | !hit or !stand? (%ds to act)",
		s.Dealer().Cards()[0], int(b.opts.AutoPlay.Seconds())))

	if s.AllPlayersFinished() {
		b.scheduleDealerTurn(channel, s)
		return
	}
	t := b.channelTimersFor(channel)
	gen := s.Generation()
	t.autoPlay = b.clock.AfterFunc(b.opts.AutoPlay, func() {
		b.onAutoPlayExpired(channel, gen)
	})
}

func (b *Bot) handleHit(msg twitch.ChatMessage) {
	s, ok := b.registry.Get(msg.Channel)
	if !ok {
		b.sayNoGame(msg)
		return
	}

	p, err := s.Hit(msg.User)
	if err != nil {
		b.sayActionError(msg, err)
		return
	}

	if p.Status == blackjack.StatusBusted {
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s %s | %s 💥", msg.DisplayName, p.Hand, p.Hand.DisplayValue()))
	} else {
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s %s (%s) | !hit or !stand?", msg.DisplayName, p.Hand, p.Hand.DisplayValue()))
	}
	b.checkPlayersDone(msg.Channel, s)
}

func (b *Bot) handleStand(msg twitch.ChatMessage) {
	s, ok := b.registry.Get(msg.Channel)
	if !ok {
		b.sayNoGame(msg)
		return
	}

	p, err := s.Stand(msg.User)
	if err != nil {
		b.sayActionError(msg, err)
		return
	}

	b.sender.Say(msg.Channel, fmt.Sprintf("@%s stands on %d.", msg.DisplayName, p.Hand.Value()))
	b.checkPlayersDone(msg.Channel, s)
}

func (b *Bot) handleHand(msg twitch.ChatMessage) {
	s, ok := b.registry.Get(msg.Channel)
	if !ok || s.State() == blackjack.StateWaiting {
		b.sayNoGame(msg)
		return
	}

	for _, p := range s.Players() {
		if p.Name == msg.User {
			b.sender.Say(msg.Channel, fmt.Sprintf("@%s %s (%s)", msg.DisplayName, p.Hand, p.Hand.DisplayValue()))
			return
		}
	}
	b.sender.Say(msg.Channel, fmt.Sprintf("@%s You're not in this round.", msg.DisplayName))
}

func (b *Bot) handleStatus(msg twitch.ChatMessage) {
	s, ok := b.registry.Get(msg.Channel)
	if !ok {
		b.sayNoGame(msg)
		return
	}
	t := b.channelTimersFor(msg.Channel)

	if s.State() == blackjack.StateWaiting {
		if t.joinOpen {
			b.sender.Say(msg.Channel, fmt.Sprintf("Join window open! %d/%d seated. Type !join to play.",
				s.PlayerCount(), s.MaxPlayers()))
		} else {
			b.sayNoGame(msg)
		}
		return
	}

	players := make([]string, 0, s.PlayerCount())
	for _, p := range s.Players() {
		players = append(players, fmt.Sprintf("%s (%s, %s)", p.Name, p.Hand.DisplayValue(), p.Status))
	}
	b.sender.Say(msg.Channel, fmt.Sprintf("Game %s | players: %s", s.State(), strings.Join(players, ", ")))
}

func (b *Bot) handleLeaderboard(msg twitch.ChatMessage, args []string) {
	category := stats.CategoryWins
	if len(args) > 0 {
		parsed, ok := stats.ParseCategory(args[0])
		if !ok {
			b.sender.Say(msg.Channel, fmt.Sprintf("@%s Unknown category. Try: wins, winrate, blackjacks, games, streak", msg.DisplayName))
			return
		}
		category = parsed
	}
	b.sender.Say(msg.Channel, b.tracker.Leaderboard(msg.Channel, category, 5))
}

func (b *Bot) handleReset(msg twitch.ChatMessage) {
	if !msg.IsMod && !msg.IsBroadcaster {
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s Only mods can reset the game.", msg.DisplayName))
		return
	}

	s, ok := b.registry.Get(msg.Channel)
	if !ok {
		b.sayNoGame(msg)
		return
	}

	b.stopAllTimers(msg.Channel)
	s.Reset()
	b.logger.Info("Game reset by moderator", "channel", msg.Channel, "user", msg.User)
	b.sender.Say(msg.Channel, fmt.Sprintf("Game reset by @%s. Type !deal to start a new one!", msg.DisplayName))
}

func (b *Bot) sayNoGame(msg twitch.ChatMessage) {
	b.sender.Say(msg.Channel, fmt.Sprintf("@%s No game in progress. Type !deal to start one!", msg.DisplayName))
}

func (b *Bot) sayActionError(msg twitch.ChatMessage, err error) {
	switch {
	case errors.Is(err, blackjack.ErrNoActiveGame):
		b.sayNoGame(msg)
	case errors.Is(err, blackjack.ErrNotInGame):
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s You're not in this round. Wait for the next !deal.", msg.DisplayName))
	case errors.Is(err, blackjack.ErrTurnOver):
		b.sender.Say(msg.Channel, fmt.Sprintf("@%s Your turn is already over.", msg.DisplayName))
	default:
		b.logger.Warn("Action rejected", "channel", msg.Channel, "user", msg.User, "error", err)
	}
}

// checkPlayersDone moves to the dealer's turn once no seat is still
// playing.
func (b *Bot) checkPlayersDone(channel string, s *blackjack.Session) {
	if s.State() != blackjack.StatePlaying || !s.AllPlayersFinished() {
		return
	}
	t := b.channelTimersFor(channel)
	stopTimer(&t.autoPlay)
	b.scheduleDealerTurn(channel, s)
}

func (b *Bot) scheduleDealerTurn(channel string, s *blackjack.Session) {
	t := b.channelTimersFor(channel)
	gen := s.Generation()
	t.dealer = b.clock.AfterFunc(b.opts.DealerDelay, func() {
		b.onDealerTurn(channel, gen)
	})
	b.sender.Say(channel, "All players done! Dealer flips the hole card...")
}

// onAutoPlayExpired force-stands anyone who never acted.
func (b *Bot) onAutoPlayExpired(channel string, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.registry.Get(channel)
	if !ok || s.Generation() != gen || s.State() != blackjack.StatePlaying {
		return
	}
	t := b.channelTimersFor(channel)
	t.autoPlay = nil

	var stood []string
	for _, p := range s.Players() {
		if p.Status == blackjack.StatusPlaying {
			if _, err := s.Stand(p.Name); err == nil {
				stood = append(stood, p.Name)
			}
		}
	}
	if len(stood) > 0 {
		b.sender.Say(channel, "Time's up! Standing for: "+strings.Join(stood, ", "))
	}
	b.checkPlayersDone(channel, s)
}

// onDealerTurn plays out the dealer, announces results, records stats, and
// arms the table reset.
func (b *Bot) onDealerTurn(channel string, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.registry.Get(channel)
	if !ok || s.Generation() != gen {
		return
	}
	t := b.channelTimersFor(channel)
	t.dealer = nil

	if err := s.PlayDealer(); err != nil {
		b.logger.Error("Dealer turn failed", "channel", channel, "error", err)
		return
	}
	results, err := s.Results()
	if err != nil {
		b.logger.Error("Failed to compute results", "channel", channel, "error", err)
		return
	}

	dealer := s.Dealer()
	b.sender.Say(channel, fmt.Sprintf("Dealer: %s (%s)", dealer, dealer.DisplayValue()))

	lines := make([]string, 0, len(results))
	for _, r := range results {
		b.tracker.Record(channel, r.Username, r)
		switch {
		case r.Bust:
			lines = append(lines, fmt.Sprintf("%s busts with %d 💥", r.Username, r.HandValue))
		case r.Blackjack && r.Outcome == blackjack.OutcomeWin:
			lines = append(lines, fmt.Sprintf("%s wins with BLACKJACK! 🎉", r.Username))
		case r.Outcome == blackjack.OutcomeWin:
			lines = append(lines, fmt.Sprintf("%s wins with %d 🏆", r.Username, r.HandValue))
		case r.Outcome == blackjack.OutcomePush:
			lines = append(lines, fmt.Sprintf("%s pushes with %d 🤝", r.Username, r.HandValue))
		default:
			lines = append(lines, fmt.Sprintf("%s loses with %d", r.Username, r.HandValue))
		}
	}
	b.sender.Say(channel, "Results: "+strings.Join(lines, " | "))
	b.logger.Info("Round finished", "channel", channel, "game_id", s.GameID(), "players", len(results))

	t.reset = b.clock.AfterFunc(b.opts.ResetDelay, func() {
		b.onTableReset(channel, gen)
	})
}

// onTableReset quietly clears the table for the next round.
func (b *Bot) onTableReset(channel string, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.registry.Get(channel)
	if !ok || s.Generation() != gen {
		return
	}
	b.channelTimersFor(channel).reset = nil

	s.Reset()
	b.logger.Debug("Table reset", "channel", channel)
}

// Snapshots returns a point-in-time view of every known session, for the
// admin API.
func (b *Bot) Snapshots() []blackjack.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	channels := b.registry.Channels()
	out := make([]blackjack.Snapshot, 0, len(channels))
	for _, ch := range channels {
		if s, ok := b.registry.Get(ch); ok {
			out = append(out, s.Snapshot())
		}
	}
	return out
}
