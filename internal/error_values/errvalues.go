package errorvalues

import "errors"

// Sentinel values for every failure the services distinguish. Handlers map
// these to HTTP status codes; repository failures without a sentinel are
// wrapped with context and treated as store errors.
var (
	// Not found
	ErrUserNotFound    = errors.New("user doesn't exist")
	ErrEdgeNotFound    = errors.New("buddy request doesn't exist")
	ErrWorkoutNotFound = errors.New("workout doesn't exist")
	ErrGoalNotFound    = errors.New("goal doesn't exist")

	// Validation
	ErrValidation     = errors.New("validation error")
	ErrNoLocation     = errors.New("user has no usable location")
	ErrSelfRequest    = errors.New("cannot send buddy request to yourself")
	ErrUnknownAction  = errors.New("unknown response action")
	ErrBadCoordinates = errors.New("coordinates out of range")

	// Conflicts and state
	ErrUserExists        = errors.New("such user already exists")
	ErrEdgePairExists    = errors.New("a request between these users already exists")
	ErrEdgeNotPending    = errors.New("request is already answered")
	ErrGoalStateConflict = errors.New("goal status change not allowed")

	// Authorization
	ErrNotRecipient = errors.New("only the recipient can answer a request")
	ErrWrongOwner   = errors.New("entity has a different owner")
	ErrInvalidToken = errors.New("invalid identity token")
)
