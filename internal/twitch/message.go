package twitch

import "strings"

// ircMessage is one parsed IRC line as Twitch sends it:
// [@tags] [:prefix] COMMAND [params] [:trailing]
type ircMessage struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
}

// ChatMessage is a PRIVMSG delivered to the bot: who said what, where, and
// the privilege flags the dispatcher needs for !reset.
type ChatMessage struct {
	Channel       string
	User          string
	DisplayName   string
	Text          string
	IsMod         bool
	IsBroadcaster bool
}

// parseIRC parses a single IRC line. Malformed lines come back with an
// empty command and are dropped by the caller.
func parseIRC(line string) ircMessage {
	msg := ircMessage{}
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, "@") {
		rest := line[1:]
		idx := strings.Index(rest, " ")
		if idx < 0 {
			return msg
		}
		msg.Tags = parseTags(rest[:idx])
		line = rest[idx+1:]
	}

	if strings.HasPrefix(line, ":") {
		idx := strings.Index(line, " ")
		if idx < 0 {
			return msg
		}
		msg.Prefix = line[1:idx]
		line = line[idx+1:]
	}

	var trailing string
	hasTrailing := false
	if idx := strings.Index(line, " :"); idx >= 0 {
		trailing = line[idx+2:]
		line = line[:idx]
		hasTrailing = true
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return msg
	}
	msg.Command = fields[0]
	msg.Params = fields[1:]
	if hasTrailing {
		msg.Params = append(msg.Params, trailing)
	}
	return msg
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		if key, value, ok := strings.Cut(pair, "="); ok {
			tags[key] = unescapeTag(value)
		} else {
			tags[pair] = ""
		}
	}
	return tags
}

// unescapeTag reverses IRCv3 tag value escaping.
func unescapeTag(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i == len(value)-1 {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// nickFromPrefix extracts the sender's login from "nick!user@host".
func nickFromPrefix(prefix string) string {
	if idx := strings.Index(prefix, "!"); idx >= 0 {
		return prefix[:idx]
	}
	return prefix
}

// toChatMessage converts a parsed PRIVMSG into a ChatMessage, reading the
// mod and badges tags for privilege flags.
func toChatMessage(msg ircMessage) (ChatMessage, bool) {
	if msg.Command != "PRIVMSG" || len(msg.Params) < 2 {
		return ChatMessage{}, false
	}

	cm := ChatMessage{
		Channel:     msg.Params[0],
		User:        nickFromPrefix(msg.Prefix),
		DisplayName: msg.Tags["display-name"],
		Text:        msg.Params[len(msg.Params)-1],
	}
	if cm.DisplayName == "" {
		cm.DisplayName = cm.User
	}

	if msg.Tags["mod"] == "1" {
		cm.IsMod = true
	}
	for _, badge := range strings.Split(msg.Tags["badges"], ",") {
		if strings.HasPrefix(badge, "broadcaster/") {
			cm.IsBroadcaster = true
		}
		if strings.HasPrefix(badge, "moderator/") {
			cm.IsMod = true
		}
	}
	return cm, true
}
