package blackjack

import "errors"

// Game-rule rejections. These are ordinary outcomes of user input, surfaced
// to the player as a chat reply; they are never logged as application errors
// and must never panic a session.
var (
	// ErrGameFull indicates the session already has the maximum players.
	ErrGameFull = errors.New("game is full")

	// ErrAlreadyJoined indicates the username already holds a seat.
	ErrAlreadyJoined = errors.New("already in the game")

	// ErrNoPlayers indicates a deal was requested with nobody seated.
	ErrNoPlayers = errors.New("no players to deal to")

	// ErrNotJoinable indicates the session is past the join window.
	ErrNotJoinable = errors.New("cannot join right now")

	// ErrNoActiveGame indicates the operation needs a game in progress.
	ErrNoActiveGame = errors.New("no active game")

	// ErrNotInGame indicates the acting user holds no seat this round.
	ErrNotInGame = errors.New("not in this game")

	// ErrTurnOver indicates the player already stood or busted.
	ErrTurnOver = errors.New("turn already finished")

	// ErrNotFinished indicates results were requested before the dealer
	// round completed.
	ErrNotFinished = errors.New("game not finished")
)
