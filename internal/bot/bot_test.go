package bot

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/deck"
	"github.com/chatjack/chatjack/internal/stats"
	"github.com/chatjack/chatjack/internal/twitch"
)

// recordingSender collects outbound chat lines. Timer callbacks send from
// other goroutines, so it locks.
type recordingSender struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingSender) Say(channel, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *recordingSender) all() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func testOptions() Options {
	return Options{
		MaxPlayers:  6,
		JoinWindow:  30 * time.Second,
		DealerDelay: 5 * time.Second,
		ResetDelay:  5 * time.Second,
		AutoPlay:    60 * time.Second,
	}
}

// newTestBot builds a bot on a mock clock. When cards are given, every
// session in the registry deals from that stacked sequence.
func newTestBot(t *testing.T, opts Options, cards ...deck.Card) (*Bot, *recordingSender, *quartz.Mock) {
	t.Helper()

	mockClock := quartz.NewMock(t)
	logger := log.New(io.Discard)
	tracker := stats.NewTracker(filepath.Join(t.TempDir(), "stats.json"), logger, mockClock)

	var newDeck func() *deck.Deck
	if len(cards) > 0 {
		newDeck = func() *deck.Deck { return deck.NewStacked(cards...) }
	}

	sender := &recordingSender{}
	b := New(sender, NewRegistry(opts.MaxPlayers, newDeck), tracker, logger, mockClock, opts)
	return b, sender, mockClock
}

func chat(user, text string) twitch.ChatMessage {
	return twitch.ChatMessage{
		Channel:     "#demo",
		User:        user,
		DisplayName: user,
		Text:        text,
	}
}

func modChat(user, text string) twitch.ChatMessage {
	msg := chat(user, text)
	msg.IsMod = true
	return msg
}

func card(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.Card{Suit: suit, Rank: rank}
}

func TestFullRoundTwoPlayers(t *testing.T) {
	ctx := context.Background()

	// Deal order is round-robin: alice, bob, dealer, alice, bob, dealer.
	// alice 10+9=19, bob 6+10=16, dealer 9+8=17, then bob hits a 5 for 21.
	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Hearts, deck.Ten),
		card(deck.Spades, deck.Six),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Diamonds, deck.Ten),
		card(deck.Hearts, deck.Eight),
		card(deck.Clubs, deck.Five),
	)

	b.HandleMessage(chat("alice", "!deal"))
	assert.Contains(t, sender.all(), "started a blackjack game")

	b.HandleMessage(chat("bob", "!join"))
	assert.Contains(t, sender.all(), "@bob is in! (2/6 seats)")

	mockClock.Advance(30 * time.Second).MustWait(ctx)
	assert.Contains(t, sender.all(), "alice: 10♥ 9♣ (19)")
	assert.Contains(t, sender.all(), "Dealer shows: 9♦ [?]")

	b.HandleMessage(chat("alice", "!stand"))
	assert.Contains(t, sender.all(), "@alice stands on 19.")

	b.HandleMessage(chat("bob", "!hit"))
	assert.Contains(t, sender.all(), "@bob 6♠ 10♦ 5♣ (21)")

	b.HandleMessage(chat("bob", "!stand"))
	assert.Contains(t, sender.all(), "All players done!")

	mockClock.Advance(5 * time.Second).MustWait(ctx)
	out := sender.all()
	assert.Contains(t, out, "Dealer: 9♦ 8♥ (17)")
	assert.Contains(t, out, "alice wins with 19")
	assert.Contains(t, out, "bob wins with 21")

	mockClock.Advance(5 * time.Second).MustWait(ctx)

	s, ok := b.registry.Get("#demo")
	require.True(t, ok)
	assert.Equal(t, blackjack.StateWaiting, s.State())
	assert.Equal(t, 0, s.PlayerCount())
	assert.Equal(t, uint64(1), s.Generation())

	// Stats were recorded before the reset.
	assert.Contains(t, b.tracker.Summary("#demo", "alice"), "1W-0L-0P")
}

func TestAutoStandAfterInactivity(t *testing.T) {
	ctx := context.Background()

	// alice 10+9=19, dealer 9+8=17.
	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Hearts, deck.Ten),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!deal"))
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	// alice never acts.
	mockClock.Advance(60 * time.Second).MustWait(ctx)
	assert.Contains(t, sender.all(), "Time's up! Standing for: alice")

	mockClock.Advance(5 * time.Second).MustWait(ctx)
	assert.Contains(t, sender.all(), "alice wins with 19")
}

func TestNaturalBlackjackSkipsPlayerTurn(t *testing.T) {
	ctx := context.Background()

	// alice A+K blackjack, dealer 9+8=17. No player turn happens.
	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Spades, deck.Ace),
		card(deck.Diamonds, deck.Nine),
		card(deck.Hearts, deck.King),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!deal"))
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	out := sender.all()
	assert.Contains(t, out, "BLACKJACK!")
	assert.Contains(t, out, "All players done!")

	mockClock.Advance(5 * time.Second).MustWait(ctx)
	assert.Contains(t, sender.all(), "alice wins with BLACKJACK!")
}

func TestDealWhileGameInProgress(t *testing.T) {
	ctx := context.Background()

	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Hearts, deck.Ten),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!deal"))
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	b.HandleMessage(chat("bob", "!deal"))
	assert.Contains(t, sender.all(), "@bob A game is already in progress!")
}

func TestDealDuringJoinWindowSeatsCaller(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(chat("bob", "!deal"))
	assert.Contains(t, sender.all(), "@bob is in! (2/6 seats)")
}

func TestJoinRejections(t *testing.T) {
	opts := testOptions()
	opts.MaxPlayers = 2
	b, sender, _ := newTestBot(t, opts)

	b.HandleMessage(chat("alice", "!join"))
	assert.Contains(t, sender.all(), "No game is forming right now")

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(chat("alice", "!join"))
	assert.Contains(t, sender.all(), "@alice You're already seated!")

	b.HandleMessage(chat("bob", "!join"))
	b.HandleMessage(chat("carol", "!join"))
	assert.Contains(t, sender.all(), "@carol The table is full (2 seats).")
}

func TestFullTableDealsImmediately(t *testing.T) {
	opts := testOptions()
	opts.MaxPlayers = 2
	b, sender, _ := newTestBot(t, opts,
		card(deck.Hearts, deck.Ten),
		card(deck.Spades, deck.Six),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Diamonds, deck.Ten),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(chat("bob", "!join"))

	// No clock advance: the last seat starts the round on the spot.
	out := sender.all()
	assert.Contains(t, out, "Table is full, dealing now!")
	assert.Contains(t, out, "Cards are out!")

	s, ok := b.registry.Get("#demo")
	require.True(t, ok)
	assert.Equal(t, blackjack.StatePlaying, s.State())
}

func TestActionsWithoutGame(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!hit"))
	b.HandleMessage(chat("alice", "!stand"))
	b.HandleMessage(chat("alice", "!hand"))
	assert.Equal(t, 3, strings.Count(sender.all(), "No game in progress"))
}

func TestHitFromSpectatorRejected(t *testing.T) {
	ctx := context.Background()

	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Hearts, deck.Ten),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!deal"))
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	b.HandleMessage(chat("mallory", "!hit"))
	assert.Contains(t, sender.all(), "@mallory You're not in this round.")
}

func TestResetRequiresPrivileges(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(chat("bob", "!reset"))
	assert.Contains(t, sender.all(), "Only mods can reset the game.")

	b.HandleMessage(modChat("modlady", "!reset"))
	assert.Contains(t, sender.all(), "Game reset by @modlady.")

	s, ok := b.registry.Get("#demo")
	require.True(t, ok)
	assert.Equal(t, 0, s.PlayerCount())
}

func TestResetCancelsJoinWindow(t *testing.T) {
	ctx := context.Background()
	b, sender, mockClock := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(modChat("modlady", "!reset"))
	before := sender.count()

	// The join window elapsing must not deal a cancelled game.
	mockClock.Advance(30 * time.Second).MustWait(ctx)
	assert.Equal(t, before, sender.count())

	s, ok := b.registry.Get("#demo")
	require.True(t, ok)
	assert.Equal(t, blackjack.StateWaiting, s.State())
}

func TestStaleTimerCallbackIsNoOp(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))
	s, ok := b.registry.Get("#demo")
	require.True(t, ok)
	staleGen := s.Generation()

	b.HandleMessage(modChat("modlady", "!reset"))
	before := sender.count()

	// A callback armed before the reset fires late with the old
	// generation and must not touch the session.
	b.onJoinWindowClosed("#demo", staleGen)

	assert.Equal(t, before, sender.count())
	assert.Equal(t, blackjack.StateWaiting, s.State())
	assert.Equal(t, 0, s.PlayerCount())
}

func TestUnknownCommandsIgnored(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "hello everyone"))
	b.HandleMessage(chat("alice", "!notacommand"))
	assert.Equal(t, 0, sender.count())
}

func TestHelpListsCommands(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!help"))
	out := sender.all()
	for _, cmd := range []string{"!deal", "!join", "!hit", "!stand", "!leaderboard"} {
		assert.Contains(t, out, cmd)
	}
}

func TestStatusCommand(t *testing.T) {
	ctx := context.Background()

	b, sender, mockClock := newTestBot(t, testOptions(),
		card(deck.Hearts, deck.Ten),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
		card(deck.Hearts, deck.Eight),
	)

	b.HandleMessage(chat("alice", "!status"))
	assert.Contains(t, sender.all(), "No game in progress")

	b.HandleMessage(chat("alice", "!deal"))
	b.HandleMessage(chat("bob", "!status"))
	assert.Contains(t, sender.all(), "Join window open! 1/6 seated.")

	mockClock.Advance(30 * time.Second).MustWait(ctx)
	b.HandleMessage(chat("bob", "!status"))
	assert.Contains(t, sender.all(), "Game playing | players: alice (19, playing)")
}

func TestStatsForAnotherPlayer(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!stats @Bob"))
	assert.Contains(t, sender.all(), "bob: No games played yet!")
}

func TestLeaderboardUnknownCategory(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!leaderboard bogus"))
	assert.Contains(t, sender.all(), "Unknown category")
}

func TestChannelsAreIsolated(t *testing.T) {
	b, sender, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))

	other := chat("bob", "!join")
	other.Channel = "#elsewhere"
	b.HandleMessage(other)
	assert.Contains(t, sender.all(), "No game is forming right now")
}

func TestSnapshotsReflectSessions(t *testing.T) {
	b, _, _ := newTestBot(t, testOptions())

	b.HandleMessage(chat("alice", "!deal"))
	msg := chat("bob", "!deal")
	msg.Channel = "#other"
	b.HandleMessage(msg)

	snaps := b.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "#demo", snaps[0].Channel)
	assert.Equal(t, "#other", snaps[1].Channel)
}

func TestMiddlewareWrapsSender(t *testing.T) {
	var wrapped []string
	mw := func(next Sender) Sender {
		return SenderFunc(func(channel, text string) {
			wrapped = append(wrapped, text)
			next.Say(channel, text)
		})
	}

	mockClock := quartz.NewMock(t)
	logger := log.New(io.Discard)
	tracker := stats.NewTracker(filepath.Join(t.TempDir(), "stats.json"), logger, mockClock)
	sender := &recordingSender{}
	b := New(sender, NewRegistry(6, nil), tracker, logger, mockClock, testOptions(), mw)

	b.HandleMessage(chat("alice", "!help"))
	require.Len(t, wrapped, 1)
	assert.Equal(t, 1, sender.count())
}
