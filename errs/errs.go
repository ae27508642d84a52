// Package errs defines the error taxonomy for the storage and index
// layers: NotFound and DuplicateKey are negative results, not failures;
// BufferFull and Io are operational errors the caller must handle;
// Invariant marks a structural check that should never fail and is
// treated as fatal.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound names the negative result of a lookup whose key is absent
// from the tree. Tree.Get does not return it: it reports absence with a
// false found flag and a nil error.
var ErrNotFound = errors.New("bptreedb: key not found")

// ErrDuplicateKey names the negative result of an insert whose key is
// already present in the tree. Tree.Insert does not return it: it
// reports a duplicate with a false result and a nil error.
var ErrDuplicateKey = errors.New("bptreedb: key already exists")

// ErrBufferFull is returned when every frame in the buffer pool is
// pinned and no victim is available for eviction.
var ErrBufferFull = errors.New("bptreedb: buffer pool exhausted, all frames pinned")

// IoError wraps a failure from the disk manager's read/write/seek path.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("bptreedb: io error during %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Io wraps err as an IoError for the given operation name.
func Io(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Op: op, Err: err}
}

// InvariantError marks a structural invariant violation (e.g. a sibling
// missing from its parent, or an underflowing node with no siblings at
// all). The engine does not attempt to recover from these; they carry a
// stack trace captured at the point of detection for postmortem.
type InvariantError struct {
	cause error
}

func (e *InvariantError) Error() string { return e.cause.Error() }

func (e *InvariantError) Unwrap() error { return e.cause }

// Invariant constructs a fatal InvariantError from a formatted message,
// attaching a stack trace via github.com/pkg/errors.
func Invariant(format string, args ...interface{}) error {
	return &InvariantError{cause: errors.WithStack(fmt.Errorf(format, args...))}
}

// IsInvariant reports whether err is (or wraps) an InvariantError.
func IsInvariant(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}

// IsBufferFull reports whether err is (or wraps) ErrBufferFull.
func IsBufferFull(err error) bool {
	return errors.Is(err, ErrBufferFull)
}
