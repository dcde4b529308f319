package ustar

import (
	"errors"
	"io"
)

// checkRead validates that a read-surface operation is legal.
func (a *Archive) checkRead() error {
	if a.stream == nil {
		return ErrClosed
	}
	if a.mode != ModeRead {
		return ErrMode
	}
	return nil
}

// Rewind seeks to the start of the archive and clears all cursor state.
func (a *Archive) Rewind() error {
	if err := a.checkRead(); err != nil {
		return err
	}
	a.hdrValid = false
	a.hdrStart = 0
	return a.seek(0)
}

// Next advances to the next entry and decodes its header, leaving the
// cursor at the entry's payload start. At the end-of-archive terminator
// it returns ErrNullRecord; iteration loops should treat that as normal
// completion (ForEach does).
func (a *Archive) Next() (*Header, error) {
	if err := a.checkRead(); err != nil {
		return nil, err
	}

	// Skip the rest of the current entry: payload plus alignment padding.
	if a.hdrValid {
		a.hdrValid = false
		if err := a.seek(a.hdrStart + BlockSize + roundUp(a.hdr.Size)); err != nil {
			return nil, err
		}
	}

	start := a.pos
	var block [BlockSize]byte
	if err := a.stream.Read(block[:]); err != nil {
		return nil, streamErr("read", err)
	}
	a.pos += BlockSize

	h, err := DecodeHeader(block[:])
	if err != nil {
		return nil, err
	}
	a.hdr = *h
	a.hdrStart = start
	a.hdrValid = true
	a.log().Debug("entry", "name", h.Name, "size", h.Size, "offset", start)
	return h, nil
}

// ForEach rewinds and visits every entry in order. A non-nil visitor
// error aborts iteration and is returned; reaching the terminator ends
// iteration successfully.
func (a *Archive) ForEach(visit func(*Header) error) error {
	if err := a.Rewind(); err != nil {
		return err
	}
	for {
		h, err := a.Next()
		if errors.Is(err, ErrNullRecord) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := visit(h); err != nil {
			return err
		}
	}
}

// errFound aborts Find's iteration at the matching entry.
var errFound = errors.New("found")

// Find iterates from the start until an entry's name exactly equals
// name. On success the cursor sits at that entry's payload start, ready
// for ReadPayload. Without a match it returns ErrNotFound.
func (a *Archive) Find(name string) (*Header, error) {
	err := a.ForEach(func(h *Header) error {
		if h.Name == name {
			return errFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		h, _ := a.Header()
		return h, nil
	case err != nil:
		return nil, err
	default:
		return nil, ErrNotFound
	}
}

// payloadBounds returns the current entry's payload interval.
func (a *Archive) payloadBounds() (start, end int64) {
	start = a.hdrStart + BlockSize
	return start, start + a.hdr.Size
}

// ReadPayload reads up to len(p) bytes of the current entry's payload,
// returning the count actually read. At the payload end it returns
// 0, io.EOF; it never reads into the entry's padding or the next
// header. Callers drain an entry by looping until io.EOF.
func (a *Archive) ReadPayload(p []byte) (int, error) {
	if err := a.checkRead(); err != nil {
		return 0, err
	}
	if !a.hdrValid {
		return 0, ErrNoHeader
	}
	_, end := a.payloadBounds()
	remaining := end - a.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := int64(len(p))
	if n > remaining {
		n = remaining
	}
	if err := a.stream.Read(p[:n]); err != nil {
		return 0, streamErr("read", err)
	}
	a.pos += n
	return int(n), nil
}

// SeekPayload repositions the cursor within the current entry's
// payload. whence is io.SeekStart, io.SeekCurrent, or io.SeekEnd,
// relative to the payload. A target outside [0, size] returns ErrRange
// and leaves the cursor unchanged. The new offset relative to the
// payload start is returned.
func (a *Archive) SeekPayload(offset int64, whence int) (int64, error) {
	if err := a.checkRead(); err != nil {
		return 0, err
	}
	if !a.hdrValid {
		return 0, ErrNoHeader
	}
	start, end := a.payloadBounds()
	var target int64
	switch whence {
	case io.SeekStart:
		target = start + offset
	case io.SeekCurrent:
		target = a.pos + offset
	case io.SeekEnd:
		target = end + offset
	default:
		return 0, ErrRange
	}
	if target < start || target > end {
		return 0, ErrRange
	}
	if err := a.seek(target); err != nil {
		return 0, err
	}
	return target - start, nil
}

// AtPayloadEnd reports whether the cursor has reached the current
// entry's payload end. It is true when no entry is current.
func (a *Archive) AtPayloadEnd() bool {
	if !a.hdrValid {
		return true
	}
	_, end := a.payloadBounds()
	return a.pos >= end
}
