// Package twitch is a minimal Twitch chat client: IRC over WebSocket with
// the tags capability, enough for a chat bot that reads PRIVMSG and sends
// channel messages. Messages are delivered to the handler one at a time in
// arrival order; sends are buffered and fire-and-forget.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// DefaultServerURL is the Twitch IRC WebSocket endpoint.
const DefaultServerURL = "wss://irc-ws.chat.twitch.tv:443"

const (
	writeWait = 10 * time.Second

	// Outbound buffer; Say drops (and logs) rather than blocking the
	// game loop when the buffer is full.
	sendBuffer = 256

	maxReconnectWait = 2 * time.Minute
)

// ErrAuthFailed indicates Twitch rejected the OAuth token at login. There
// is no point reconnecting with the same credentials.
var ErrAuthFailed = errors.New("twitch: login authentication failed")

// Handler receives each chat message. It is invoked synchronously from the
// read loop, so messages for a channel arrive strictly in chat order.
type Handler func(ChatMessage)

// Client is a Twitch chat connection for one bot account across many
// channels.
type Client struct {
	serverURL string
	nick      string
	token     string
	channels  []string
	logger    *log.Logger
	handler   Handler

	mu   sync.Mutex
	conn *websocket.Conn
	send chan string
}

// NewClient creates a client for the given bot account. token is the OAuth
// access token without the "oauth:" prefix; channels may be given with or
// without the leading '#'.
func NewClient(nick, token string, channels []string, logger *log.Logger) *Client {
	normalized := make([]string, len(channels))
	for i, ch := range channels {
		normalized[i] = NormalizeChannel(ch)
	}
	return &Client{
		serverURL: DefaultServerURL,
		nick:      strings.ToLower(nick),
		token:     token,
		channels:  normalized,
		logger:    logger.WithPrefix("twitch"),
		send:      make(chan string, sendBuffer),
	}
}

// NormalizeChannel lowercases a channel name and ensures the '#' prefix.
func NormalizeChannel(ch string) string {
	ch = strings.ToLower(strings.TrimSpace(ch))
	if !strings.HasPrefix(ch, "#") {
		ch = "#" + ch
	}
	return ch
}

// SetServerURL overrides the chat endpoint, used by tests.
func (c *Client) SetServerURL(url string) {
	c.serverURL = url
}

// OnMessage registers the chat message handler. Must be called before Run.
func (c *Client) OnMessage(h Handler) {
	c.handler = h
}

// Say queues a message for a channel, fire-and-forget. A full buffer or a
// dead connection drops the message with a log line; the game state machine
// never waits on chat delivery.
func (c *Client) Say(channel, text string) {
	line := fmt.Sprintf("PRIVMSG %s :%s", NormalizeChannel(channel), text)
	select {
	case c.send <- line:
	default:
		c.logger.Warn("Send buffer full, dropping message", "channel", channel)
	}
}

// Run connects and processes messages until the context is cancelled or
// authentication fails. Transient connection errors trigger a reconnect
// with exponential backoff; game sessions are untouched across reconnects.
func (c *Client) Run(ctx context.Context) error {
	wait := time.Second
	for {
		err := c.runOnce(ctx)
		switch {
		case errors.Is(err, context.Canceled), ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrAuthFailed):
			return err
		}

		c.logger.Warn("Disconnected from chat, reconnecting", "error", err, "wait", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxReconnectWait {
			wait = maxReconnectWait
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.serverURL, err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.login(conn); err != nil {
		return err
	}

	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()
	go c.writePump(writeCtx, conn)

	return c.readLoop(ctx, conn)
}

func (c *Client) login(conn *websocket.Conn) error {
	lines := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:" + c.token,
		"NICK " + c.nick,
	}
	for _, ch := range c.channels {
		lines = append(lines, "JOIN "+ch)
	}
	for _, line := range lines {
		if err := c.writeLine(conn, line); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	return nil
}

func (c *Client) writeLine(conn *websocket.Conn, line string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}

// writePump drains the send queue onto the connection.
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case line := <-c.send:
			if err := c.writeLine(conn, line); err != nil {
				c.logger.Error("Failed to send message", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readLoop parses every inbound frame. A frame may carry several IRC lines.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		for _, line := range strings.Split(string(data), "\r\n") {
			if line == "" {
				continue
			}
			if err := c.handleLine(conn, line); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handleLine(conn *websocket.Conn, line string) error {
	msg := parseIRC(line)
	switch msg.Command {
	case "PING":
		payload := ""
		if len(msg.Params) > 0 {
			payload = " :" + msg.Params[len(msg.Params)-1]
		}
		return c.writeLine(conn, "PONG"+payload)

	case "PRIVMSG":
		if cm, ok := toChatMessage(msg); ok && c.handler != nil {
			c.handler(cm)
		}

	case "NOTICE":
		// Failed logins arrive as a NOTICE before the server closes us.
		if len(msg.Params) > 0 && strings.Contains(msg.Params[len(msg.Params)-1], "authentication failed") {
			return ErrAuthFailed
		}

	case "RECONNECT":
		return errors.New("server requested reconnect")

	case "001":
		c.logger.Info("Connected to Twitch chat", "nick", c.nick, "channels", strings.Join(c.channels, ","))
	}
	return nil
}
