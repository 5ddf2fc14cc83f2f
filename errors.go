package blackjack

import "errors"

// Kind classifies an error for the caller. Every kind except
// KindInternal is recoverable.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindExhausted:
		return "exhausted"
	}
	return "internal"
}

// Code is a machine-readable error code.
type Code string

// Error is a domain error. Two errors are equal under errors.Is when
// their codes match, so a sentinel with a more specific message still
// matches.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) withMessage(message string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: message}
}

func newError(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrSessionNotFound  = newError(KindNotFound, "SESSION_NOT_FOUND", "game not found")
	ErrJoinCodeNotFound = newError(KindNotFound, "JOIN_CODE_NOT_FOUND", "no game with that code")

	ErrNotOwner        = newError(KindForbidden, "NOT_OWNER", "only the game owner can do that")
	ErrNotYourTurn     = newError(KindForbidden, "NOT_YOUR_TURN", "it's not your turn")
	ErrPlayerNotInGame = newError(KindForbidden, "PLAYER_NOT_IN_GAME", "you're not in this game")

	ErrAlreadyJoined    = newError(KindConflict, "ALREADY_JOINED", "you're already in this game")
	ErrGameFull         = newError(KindConflict, "GAME_FULL", "this game is full")
	ErrGameStarted      = newError(KindConflict, "GAME_STARTED", "game has already started")
	ErrGameFinished     = newError(KindConflict, "GAME_FINISHED", "game has already finished")
	ErrGameNotActive    = newError(KindConflict, "GAME_NOT_ACTIVE", "game is not active")
	ErrRoundInProgress  = newError(KindConflict, "ROUND_IN_PROGRESS", "a round is in progress")
	ErrRoundNotOver     = newError(KindConflict, "ROUND_NOT_OVER", "the round is not over yet")
	ErrNotEnoughPlayers = newError(KindConflict, "NOT_ENOUGH_PLAYERS", "not enough players to start the game")
	ErrPlayersNotReady  = newError(KindConflict, "PLAYERS_NOT_READY", "all players must be ready to start the game")
	ErrNotBlackjack     = newError(KindConflict, "NOT_BLACKJACK", "your hand is not worth 21")
	ErrInvalidDeckSize  = newError(KindConflict, "INVALID_DECK_SIZE", "deck must contain exactly 52 cards")
	ErrInvalidJoinCode  = newError(KindConflict, "INVALID_JOIN_CODE", "please enter a valid game code")

	ErrDeckEmpty     = newError(KindExhausted, "DECK_EMPTY", "the deck is empty")
	ErrDeckExhausted = newError(KindExhausted, "DECK_EXHAUSTED", "not enough cards in the deck to deal")
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
