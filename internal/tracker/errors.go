package tracker

import (
	"errors"
	"fmt"
)

// Error kinds callers are expected to branch on with errors.Is.
var (
	// ErrNotFound: a single-entity metadata lookup found nothing. List
	// operations return empty instead, and GetEntry returns StatusUnknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument: empty habit id, malformed date, or a status value
	// outside the tri-state domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageUnavailable: the underlying SQLite database could not
	// complete the operation. No retry is attempted.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
