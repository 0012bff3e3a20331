package game

import "errors"

var (
	// ErrInvalidCommand marks a malformed client command or unknown mode.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownSlot marks a player slot the current mode does not have.
	ErrUnknownSlot = errors.New("unknown player slot")
	// ErrSessionClosed is returned by commands applied after Close.
	ErrSessionClosed = errors.New("session closed")
)

var (
	// ErrWrongPhase is returned by an action the current phase does not offer.
	ErrWrongPhase = errors.New("action not available in this phase")
	// ErrInvalidNames is returned by PressStart when name validation fails.
	// The field messages are in the session's NameErrors.
	ErrInvalidNames = errors.New("player names are invalid")
	// ErrMaxRooms is returned when the room manager is at capacity.
	ErrMaxRooms = errors.New("maximum number of rooms reached")
)
