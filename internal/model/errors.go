package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidName  = errors.New("invalid display name")

	// Matchmaking errors
	ErrNotEnoughInLobby = errors.New("not enough users in lobby to start a battle")
	ErrNotInLobby       = errors.New("attempted to start a battle where at least one user is not in the lobby")
	ErrSelfMatch        = errors.New("a user cannot battle themselves")
	ErrNoHandAvailable  = errors.New("no hand available")

	// Battle errors
	ErrBattleNotFound = errors.New("battle not found")
	ErrNotInBattle    = errors.New("user is not in a battle")
	ErrUnknownUnit    = errors.New("unknown unit")

	// Catalog errors
	ErrInvalidCatalog   = errors.New("invalid unit catalog")
	ErrCatalogNotStored = errors.New("catalog not stored")

	// Delivery errors
	ErrNoActiveConnection = errors.New("no active connection")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrEncodeFailed       = errors.New("failed to encode response")

	// Protocol errors
	ErrDecodeFailed = errors.New("failed to decode frame")
)
