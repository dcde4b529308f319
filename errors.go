package ustar

import "errors"

// Format errors: the archive bytes are wrong.
var (
	// ErrBadChecksum is returned when a header's declared checksum does not
	// match the checksum computed over its bytes.
	ErrBadChecksum = errors.New("ustar: bad checksum")

	// ErrNullRecord is returned when a header block is the all-zero
	// end-of-archive terminator. It signals normal end of iteration, not
	// corruption; ForEach and Find translate it into success or ErrNotFound.
	ErrNullRecord = errors.New("ustar: null record")

	// ErrOverflow is returned when a numeric field has more octal digits
	// than its width allows, or contains a non-octal byte.
	ErrOverflow = errors.New("ustar: integer overflow")
)

// Usage errors: the call sequence is wrong. These are deterministic given
// the sequence of calls and indicate a caller bug, not an environment or
// data problem.
var (
	// ErrMode is returned when a read-mode operation is invoked on a
	// write-mode archive or vice versa.
	ErrMode = errors.New("ustar: operation not allowed in this mode")

	// ErrNoHeader is returned when a payload operation is invoked without a
	// current entry.
	ErrNoHeader = errors.New("ustar: no current entry")

	// ErrFinalized is returned when a header or payload write follows
	// Finalize.
	ErrFinalized = errors.New("ustar: archive already finalized")

	// ErrClosed is returned when any operation follows Close.
	ErrClosed = errors.New("ustar: archive closed")
)

// Lookup and validation errors.
var (
	// ErrNotFound is returned by Find when no entry has the requested name.
	ErrNotFound = errors.New("ustar: entry not found")

	// ErrNameTooLong is returned when an entry name exceeds the 100-byte
	// name field.
	ErrNameTooLong = errors.New("ustar: name too long")

	// ErrRange is returned by SeekPayload when the target position falls
	// outside the current entry's payload.
	ErrRange = errors.New("ustar: seek out of payload range")
)

// StreamError wraps a backend failure, tagged with the primitive that
// failed: "open", "read", "write", "seek", or "close". The engine
// propagates backend errors verbatim and never retries; after a
// StreamError the cursor state is unspecified and the caller should
// rewind or reopen.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return "ustar: " + e.Op + ": " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func streamErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StreamError{Op: op, Err: err}
}
