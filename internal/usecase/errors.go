package usecase

import (
	"errors"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrSyncInProgress        = errors.New("fixture sync already in progress")
	ErrPredictionLocked      = errors.New("prediction is locked")
)

// Sync failure classes. They are attached with crerr.Mark so the original
// cause stays in the chain; match them with crerr.Is.
var (
	ErrTransport        = crerr.New("match source transport failure")
	ErrMalformedPayload = crerr.New("malformed match payload")
	ErrPersistence      = crerr.New("persistence failure")
)

func markTransport(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrTransport)
}

func markPersistence(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrPersistence)
}
