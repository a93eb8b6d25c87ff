package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrBadgeRegistered = errors.New("badge already registered")
	ErrUnknownGame     = errors.New("unknown game")
	ErrNotOwned        = errors.New("item not owned")
	ErrVersionConflict = errors.New("player was modified concurrently")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

// IsConflictError checks if an error means the request collided with existing state
func IsConflictError(err error) bool {
	return errors.Is(err, ErrBadgeRegistered)
}
