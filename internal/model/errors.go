package model

import "errors"

// ErrorCode distinguishes error classes for clients
type ErrorCode string

const (
	CodeInvalidMessage   ErrorCode = "INVALID_MESSAGE"
	CodeUnknownType      ErrorCode = "UNKNOWN_TYPE"
	CodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	CodeNotInRoom        ErrorCode = "NOT_IN_ROOM"
	CodeAlreadyInRoom    ErrorCode = "ALREADY_IN_ROOM"
	CodeRoomNotFound     ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull         ErrorCode = "ROOM_FULL"
	CodeRoomNotJoinable  ErrorCode = "ROOM_NOT_JOINABLE"
	CodeSessionExpired   ErrorCode = "SESSION_EXPIRED"
	CodeNotHost          ErrorCode = "NOT_HOST"
	CodeWrongState       ErrorCode = "WRONG_STATE"
	CodeNotEnoughPlayers ErrorCode = "NOT_ENOUGH_PLAYERS"
	CodeAlreadySubmitted ErrorCode = "ALREADY_SUBMITTED"
	CodeFinalRound       ErrorCode = "FINAL_ROUND"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeRoomClosed       ErrorCode = "ROOM_CLOSED"
	CodeInternal         ErrorCode = "INTERNAL"
)

// GameError is a recoverable, per-connection error reported via ERROR
type GameError struct {
	Code    ErrorCode
	Message string
}

func (e *GameError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any GameError carrying the same code, so callers can compare
// a detailed error against the sentinels below with errors.Is.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// NewError creates a GameError
func NewError(code ErrorCode, message string) *GameError {
	return &GameError{Code: code, Message: message}
}

var (
	ErrInvalidMessage   = NewError(CodeInvalidMessage, "message must be a JSON object with a type")
	ErrNotInRoom        = NewError(CodeNotInRoom, "you are not in a game")
	ErrAlreadyInRoom    = NewError(CodeAlreadyInRoom, "leave your current game first")
	ErrRoomNotFound     = NewError(CodeRoomNotFound, "room not found")
	ErrRoomFull         = NewError(CodeRoomFull, "room is full")
	ErrRoomNotJoinable  = NewError(CodeRoomNotJoinable, "game already in progress")
	ErrSessionExpired   = NewError(CodeSessionExpired, "could not reconnect, session expired")
	ErrNotHost          = NewError(CodeNotHost, "only the host can do that")
	ErrWrongState       = NewError(CodeWrongState, "not allowed right now")
	ErrNotEnoughPlayers = NewError(CodeNotEnoughPlayers, "not enough connected players")
	ErrAlreadySubmitted = NewError(CodeAlreadySubmitted, "already submitted this round")
	ErrFinalRound       = NewError(CodeFinalRound, "no rounds left, end the game instead")
	ErrRateLimited      = NewError(CodeRateLimited, "slow down")
	ErrRoomClosed       = NewError(CodeRoomClosed, "room is closed")
	ErrInternal         = NewError(CodeInternal, "internal error")
)

// Invalid returns an INVALID_PAYLOAD error with a specific message
func Invalid(message string) *GameError {
	return NewError(CodeInvalidPayload, message)
}

// WrongState returns a WRONG_STATE error with a specific message
func WrongState(message string) *GameError {
	return NewError(CodeWrongState, message)
}

// AsGameError extracts a GameError from err, mapping anything else to ErrInternal
func AsGameError(err error) *GameError {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge
	}
	return ErrInternal
}
