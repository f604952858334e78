package chat

import (
	"errors"
	"fmt"

	"chatroom-service/internal/repositories"
)

var (
	ErrParticipantExists   = errors.New("participant already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrUnknownSender       = errors.New("sender is not a registered participant")
	ErrInvalidLimit        = errors.New("limit must be a positive integer")
)

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// translate maps repository sentinels onto engine errors.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrParticipantExists):
		return ErrParticipantExists
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	default:
		return &StorageError{Op: op, Err: err}
	}
}
