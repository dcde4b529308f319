package ustar

import (
	"io"
	"log/slog"
	"os"
)

// Mode selects the access mode an Archive is bound to. There is no
// read-write mode; the two surfaces have incompatible cursor protocols.
type Mode int

const (
	// ModeRead enables the entry-iteration and payload-read surface.
	ModeRead Mode = iota

	// ModeWrite enables the header/payload/finalize surface.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	}
	return "invalid"
}

// writeState tracks write-mode progress for the current entry. The
// padded flag lives next to it because payload-written and
// padding-flushed coexist within one entry.
type writeState uint8

const (
	writeEmpty     writeState = iota // no header written yet
	writeHeader                      // header written, no payload bytes
	writePayload                     // payload bytes written
	writeFinalized                   // terminator written, archive sealed
)

// Archive sequences header and payload I/O over a Stream backend.
//
// An Archive tracks only offsets and a small set of progress flags; it
// never buffers payload bytes. It must not be used from more than one
// goroutine.
type Archive struct {
	stream Stream
	mode   Mode
	logger *slog.Logger

	// pos is the absolute byte offset in the stream, advanced by every
	// read, write, and seek.
	pos int64

	// Current entry, valid between a successful header read or write and
	// the point the cursor moves past the entry.
	hdr      Header
	hdrValid bool
	hdrStart int64

	// Write-mode progress.
	wstate   writeState
	declared int64 // payload size the current header declared
	written  int64 // payload bytes accepted so far
	padded   bool  // trailing pad for the current payload flushed
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for debug-level engine events. By default
// nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// New binds an Archive to a stream backend and an access mode. The
// archive owns the stream until Close.
func New(stream Stream, mode Mode, opts ...Option) (*Archive, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, ErrMode
	}
	a := &Archive{stream: stream, mode: mode}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// OpenFile opens the named file as an archive. ModeRead opens an
// existing file; ModeWrite creates or truncates it.
func OpenFile(name string, mode Mode, opts ...Option) (*Archive, error) {
	var f *os.File
	var err error
	switch mode {
	case ModeRead:
		f, err = os.Open(name)
	case ModeWrite:
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		return nil, ErrMode
	}
	if err != nil {
		return nil, streamErr("open", err)
	}
	return New(NewStream(f), mode, opts...)
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.logger
}

// Mode returns the access mode the archive was bound to.
func (a *Archive) Mode() Mode {
	return a.mode
}

// Header returns the current entry's header. ok is false when no entry
// is current (before the first Next, after the terminator, or in write
// mode before any WriteHeader).
func (a *Archive) Header() (*Header, bool) {
	if !a.hdrValid {
		return nil, false
	}
	h := a.hdr
	return &h, true
}

// Close releases the stream backend. In write mode it finalizes the
// archive first. The backend reference is dropped even when finalize or
// the backend close fails; when both fail, the finalize error wins.
// Close is idempotent.
func (a *Archive) Close() error {
	if a.stream == nil {
		return nil
	}
	var finErr error
	if a.mode == ModeWrite && a.wstate != writeFinalized {
		finErr = a.Finalize()
	}
	closeErr := streamErr("close", a.stream.Close())
	a.stream = nil
	a.hdrValid = false
	if finErr != nil {
		return finErr
	}
	return closeErr
}

// roundUp rounds n up to the next multiple of BlockSize.
func roundUp(n int64) int64 {
	return (n + BlockSize - 1) &^ (BlockSize - 1)
}

// zeroBlock backs all padding and terminator writes. Never written to.
var zeroBlock [BlockSize]byte

// writeZeros appends n zero bytes at the cursor, n <= BlockSize.
func (a *Archive) writeZeros(n int64) error {
	if n == 0 {
		return nil
	}
	if err := a.stream.Write(zeroBlock[:n]); err != nil {
		return streamErr("write", err)
	}
	a.pos += n
	return nil
}

// seek repositions the stream and the cursor to an absolute offset.
func (a *Archive) seek(pos int64) error {
	if err := a.stream.Seek(pos); err != nil {
		return streamErr("seek", err)
	}
	a.pos = pos
	return nil
}
