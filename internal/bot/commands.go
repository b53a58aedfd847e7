package bot

import "strings"

// Command identifies a chat command. The set is closed: dispatch is a
// switch over these values, and anything unrecognized maps to CmdUnknown
// and is ignored.
type Command int

const (
	CmdUnknown Command = iota
	CmdDeal
	CmdJoin
	CmdHit
	CmdStand
	CmdHand
	CmdStatus
	CmdStats
	CmdMyStats
	CmdLeaderboard
	CmdReset
	CmdHelp
)

// String returns the string representation of a command
func (c Command) String() string {
	switch c {
	case CmdDeal:
		return "deal"
	case CmdJoin:
		return "join"
	case CmdHit:
		return "hit"
	case CmdStand:
		return "stand"
	case CmdHand:
		return "hand"
	case CmdStatus:
		return "status"
	case CmdStats:
		return "stats"
	case CmdMyStats:
		return "mystats"
	case CmdLeaderboard:
		return "leaderboard"
	case CmdReset:
		return "reset"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ParseCommand extracts the command and its arguments from a chat line.
// Lines that do not start with '!' parse as CmdUnknown.
func ParseCommand(text string) (Command, []string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "!") {
		return CmdUnknown, nil
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return CmdUnknown, nil
	}

	switch strings.ToLower(fields[0]) {
	case "deal":
		return CmdDeal, fields[1:]
	case "join":
		return CmdJoin, fields[1:]
	case "hit":
		return CmdHit, fields[1:]
	case "stand", "stay":
		return CmdStand, fields[1:]
	case "hand":
		return CmdHand, fields[1:]
	case "status":
		return CmdStatus, fields[1:]
	case "stats":
		return CmdStats, fields[1:]
	case "mystats":
		return CmdMyStats, fields[1:]
	case "leaderboard", "lb", "top":
		return CmdLeaderboard, fields[1:]
	case "reset", "resetgame":
		return CmdReset, fields[1:]
	case "help", "commands", "blackjack":
		return CmdHelp, fields[1:]
	default:
		return CmdUnknown, nil
	}
}
