package process

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPreconditionFailed = errors.New("precondition failed")

	ErrNoSession = fmt.Errorf("%w: no session user", ErrPreconditionFailed)
	ErrNoEvent   = fmt.Errorf("%w: no current event", ErrPreconditionFailed)
)

func notFound(docID string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, docID)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
