package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/sandbag/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodePlayerRequired   = "PLAYER_REQUIRED"
	CodeNotFound         = "NOT_FOUND"
	CodeGameNotFound     = "GAME_NOT_FOUND"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeTeamNotFound     = "TEAM_NOT_FOUND"
	CodeNotInRoom        = "NOT_IN_ROOM"
	CodeInvalidPhase     = "INVALID_PHASE"
	CodeGameNotActive    = "GAME_NOT_ACTIVE"
	CodeGameStarted      = "GAME_ALREADY_STARTED"
	CodeRoomHasGame      = "ROOM_HAS_GAME"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotConfirmer     = "NOT_CONFIRMER"
	CodeNotHost          = "NOT_HOST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidBid       = "INVALID_BID"
	CodeInvalidBooks     = "INVALID_BOOKS"
	CodeRoomFull         = "ROOM_FULL"
	CodeConflict         = "CONFLICT"
	CodeRetriesExhausted = "RETRIES_EXHAUSTED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// specificCodes refines the code for errors callers commonly branch on.
// Anything not listed gets its kind's generic code.
var specificCodes = []struct {
	err  error
	code string
}{
	{model.ErrGameNotFound, CodeGameNotFound},
	{model.ErrRoomNotFound, CodeRoomNotFound},
	{model.ErrPlayerNotFound, CodePlayerNotFound},
	{model.ErrTeamNotFound, CodeTeamNotFound},
	{model.ErrNotInRoom, CodeNotInRoom},
	{model.ErrGameNotActive, CodeGameNotActive},
	{model.ErrGameAlreadyStarted, CodeGameStarted},
	{model.ErrRoomHasGame, CodeRoomHasGame},
	{model.ErrNotConfirmer, CodeNotConfirmer},
	{model.ErrNotHost, CodeNotHost},
	{model.ErrInvalidBid, CodeInvalidBid},
	{model.ErrInvalidBooks, CodeInvalidBooks},
	{model.ErrRoomFull, CodeRoomFull},
	{model.ErrRetriesExceeded, CodeRetriesExhausted},
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var status int
	var code string
	switch {
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, model.ErrInvalidPhase):
		status, code = http.StatusConflict, CodeInvalidPhase
	case errors.Is(err, model.ErrUnauthorized):
		status, code = http.StatusForbidden, CodeUnauthorized
	case errors.Is(err, model.ErrValidation):
		status, code = http.StatusBadRequest, CodeValidation
	case errors.Is(err, model.ErrConflict):
		status, code = http.StatusConflict, CodeConflict
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}

	for _, sc := range specificCodes {
		if errors.Is(err, sc.err) {
			code = sc.code
			break
		}
	}
	return &httpError{status, APIError{code, err.Error()}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewPlayerRequiredError is returned when a command needs the acting player
// and the request did not name one
func NewPlayerRequiredError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodePlayerRequired, "X-Player-ID header is required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
