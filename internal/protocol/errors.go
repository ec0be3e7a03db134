package protocol

import (
	"errors"

	"github.com/mcoot/towerduel/internal/model"
)

// Error codes carried by Error responses
const (
	CodeInvalidName            = "INVALID_NAME"
	CodeMatchmakingUnavailable = "MATCHMAKING_UNAVAILABLE"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeNoHandAvailable        = "NO_HAND_AVAILABLE"
	CodeUnknownUnit            = "UNKNOWN_UNIT"
	CodeNotInBattle            = "NOT_IN_BATTLE"
	CodeUnknownUser            = "UNKNOWN_USER"
	CodeInternalError          = "INTERNAL_ERROR"
)

// ErrorFor converts a service error into an Error response for the requesting user
func ErrorFor(err error) Response {
	switch {
	case errors.Is(err, model.ErrInvalidName):
		return ErrorResponse(CodeInvalidName, "Name must be between 1 and 32 characters")
	case errors.Is(err, model.ErrNotEnoughInLobby):
		return ErrorResponse(CodeMatchmakingUnavailable, "No opponents are waiting in the lobby")
	case errors.Is(err, model.ErrNotInLobby):
		return ErrorResponse(CodeInvalidStateTransition, "Both players must be in the lobby to start a battle")
	case errors.Is(err, model.ErrSelfMatch):
		return ErrorResponse(CodeInvalidStateTransition, "You cannot battle yourself")
	case errors.Is(err, model.ErrNoHandAvailable):
		return ErrorResponse(CodeNoHandAvailable, "The catalog is too small to draw a hand")
	case errors.Is(err, model.ErrUnknownUnit):
		return ErrorResponse(CodeUnknownUnit, "Unknown unit")
	case errors.Is(err, model.ErrNotInBattle), errors.Is(err, model.ErrBattleNotFound):
		return ErrorResponse(CodeNotInBattle, "You are not in a battle")
	case errors.Is(err, model.ErrUserNotFound):
		return ErrorResponse(CodeUnknownUser, "User not found")
	default:
		return ErrorResponse(CodeInternalError, "Internal server error")
	}
}
