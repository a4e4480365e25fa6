package memory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches any NotFoundError with errors.Is.
var ErrNotFound = errors.New("memory: not found")

// TransportError reports that a store was unreachable or rejected a request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport: %s failed", e.Op)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports a mutation aimed at an id the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("memory: entry %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError lists the capture fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "memory: invalid capture"
	}
	return "memory: invalid capture: " + strings.Join(e.Fields, ", ")
}
