package model

import "errors"

// Error kinds. Every error below matches exactly one of these with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPhase = errors.New("invalid phase")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
)

// kindError is a specific error that unwraps to its kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Common errors used across the application
var (
	// Not found
	ErrGameNotFound   = newError(ErrNotFound, "game not found")
	ErrRoomNotFound   = newError(ErrNotFound, "room not found")
	ErrPlayerNotFound = newError(ErrNotFound, "player not found")
	ErrTeamNotFound   = newError(ErrNotFound, "team not found")
	ErrNotInRoom      = newError(ErrNotFound, "player is not in room")

	// Invalid phase
	ErrWrongPhase         = newError(ErrInvalidPhase, "command not allowed in the current round phase")
	ErrNoActiveRound      = newError(ErrInvalidPhase, "game has no active round")
	ErrGameNotActive      = newError(ErrInvalidPhase, "game is not active")
	ErrGameAlreadyStarted = newError(ErrInvalidPhase, "game has already started")
	ErrTeamBidConfirmed   = newError(ErrInvalidPhase, "team bid is already confirmed")
	ErrRoundNotScored     = newError(ErrInvalidPhase, "current round has not been scored")
	ErrRoomHasGame        = newError(ErrInvalidPhase, "room already has a game")

	// Unauthorized
	ErrNotConfirmer = newError(ErrUnauthorized, "player is not the team's designated confirmer")
	ErrNotHost      = newError(ErrUnauthorized, "player is not the host")

	// Validation
	ErrInvalidBid         = newError(ErrValidation, "bid must be between 0 and 13")
	ErrInvalidBooks       = newError(ErrValidation, "books must be between 0 and 13")
	ErrInvalidTeam        = newError(ErrValidation, "invalid team")
	ErrInvalidPlayerCount = newError(ErrValidation, "game needs between 2 and 4 players")
	ErrDuplicatePlayer    = newError(ErrValidation, "duplicate player id")
	ErrInvalidTargetScore = newError(ErrValidation, "target score must be positive")
	ErrTeamsUnbalanced    = newError(ErrValidation, "teams must have equal, non-zero membership")
	ErrPlayerUnassigned   = newError(ErrValidation, "every player must be assigned to a team")
	ErrRoomFull           = newError(ErrValidation, "room is full")
	ErrAlreadyInRoom      = newError(ErrValidation, "player is already in room")
	ErrSelfPartner        = newError(ErrValidation, "player cannot partner with themselves")

	// Conflict
	ErrGameExists      = newError(ErrConflict, "game already exists")
	ErrRoomExists      = newError(ErrConflict, "room already exists")
	ErrVersionConflict = newError(ErrConflict, "document was modified concurrently")
	ErrRetriesExceeded = newError(ErrConflict, "gave up after repeated concurrent modifications")
)
