package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
	// ErrNoTrack reports that no track accepts the requested clip kind.
	ErrNoTrack = errors.New("no track of required kind")
	// ErrLocked reports an edit against a locked track.
	ErrLocked = errors.New("track locked")
)
