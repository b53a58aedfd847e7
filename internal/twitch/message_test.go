package twitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivmsg(t *testing.T) {
	line := "@badge-info=;badges=moderator/1;display-name=Alice;mod=1 :alice!alice@alice.tmi.twitch.tv PRIVMSG #demo :!hit"
	msg := parseIRC(line)

	assert.Equal(t, "PRIVMSG", msg.Command)
	assert.Equal(t, "alice!alice@alice.tmi.twitch.tv", msg.Prefix)
	require.Len(t, msg.Params, 2)
	assert.Equal(t, "#demo", msg.Params[0])
	assert.Equal(t, "!hit", msg.Params[1])
	assert.Equal(t, "Alice", msg.Tags["display-name"])
	assert.Equal(t, "1", msg.Tags["mod"])
}

func TestParsePing(t *testing.T) {
	msg := parseIRC("PING :tmi.twitch.tv")
	assert.Equal(t, "PING", msg.Command)
	require.Len(t, msg.Params, 1)
	assert.Equal(t, "tmi.twitch.tv", msg.Params[0])
}

func TestParseWithoutTags(t *testing.T) {
	msg := parseIRC(":tmi.twitch.tv 001 chatjack :Welcome, GLHF!")
	assert.Equal(t, "001", msg.Command)
	assert.Equal(t, "tmi.twitch.tv", msg.Prefix)
	require.Len(t, msg.Params, 2)
	assert.Equal(t, "Welcome, GLHF!", msg.Params[1])
}

func TestTagUnescaping(t *testing.T) {
	msg := parseIRC(`@system-msg=hello\sworld\:\r :tmi.twitch.tv NOTICE #demo :ok`)
	assert.Equal(t, "hello world;\r", msg.Tags["system-msg"])
}

func TestToChatMessageModBadge(t *testing.T) {
	line := "@badges=moderator/1,subscriber/3;display-name=Alice;mod=1 :alice!alice@tmi PRIVMSG #demo :!reset"
	cm, ok := toChatMessage(parseIRC(line))
	require.True(t, ok)

	assert.Equal(t, "#demo", cm.Channel)
	assert.Equal(t, "alice", cm.User)
	assert.Equal(t, "Alice", cm.DisplayName)
	assert.Equal(t, "!reset", cm.Text)
	assert.True(t, cm.IsMod)
	assert.False(t, cm.IsBroadcaster)
}

func TestToChatMessageBroadcasterBadge(t *testing.T) {
	line := "@badges=broadcaster/1;display-name=Streamer :streamer!streamer@tmi PRIVMSG #demo :!reset"
	cm, ok := toChatMessage(parseIRC(line))
	require.True(t, ok)

	assert.True(t, cm.IsBroadcaster)
	assert.False(t, cm.IsMod)
}

func TestToChatMessagePlainViewer(t *testing.T) {
	line := ":bob!bob@tmi PRIVMSG #demo :hello everyone"
	cm, ok := toChatMessage(parseIRC(line))
	require.True(t, ok)

	assert.Equal(t, "bob", cm.User)
	assert.Equal(t, "bob", cm.DisplayName, "display name falls back to login")
	assert.False(t, cm.IsMod)
	assert.False(t, cm.IsBroadcaster)
}

func TestToChatMessageRejectsNonPrivmsg(t *testing.T) {
	_, ok := toChatMessage(parseIRC("PING :tmi.twitch.tv"))
	assert.False(t, ok)

	_, ok = toChatMessage(parseIRC(":tmi.twitch.tv JOIN #demo"))
	assert.False(t, ok)
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "#demo", NormalizeChannel("demo"))
	assert.Equal(t, "#demo", NormalizeChannel("#Demo"))
	assert.Equal(t, "#demo", NormalizeChannel("  DEMO "))
}
