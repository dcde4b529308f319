package ustar

import "time"

// Default modes for the convenience header constructors.
const (
	defaultFileMode = 0o664
	defaultDirMode  = 0o775
)

// checkWrite validates that a write-surface operation is legal.
func (a *Archive) checkWrite() error {
	if a.stream == nil {
		return ErrClosed
	}
	if a.mode != ModeWrite {
		return ErrMode
	}
	return nil
}

// padPayload flushes the alignment padding after the current entry's
// payload, so the next header starts on a block boundary even when the
// caller wrote fewer bytes than the header declared.
func (a *Archive) padPayload() error {
	if a.padded {
		return nil
	}
	if err := a.writeZeros(roundUp(a.pos) - a.pos); err != nil {
		return err
	}
	a.padded = true
	return nil
}

// WriteHeader encodes h and writes it as the next entry's header block.
// Any unpadded payload of the previous entry is padded first. Writing a
// header after Finalize fails with ErrFinalized.
func (a *Archive) WriteHeader(h *Header) error {
	if err := a.checkWrite(); err != nil {
		return err
	}
	if a.wstate == writeFinalized {
		return ErrFinalized
	}
	if a.wstate == writePayload {
		if err := a.padPayload(); err != nil {
			return err
		}
	}

	block, err := EncodeHeader(h)
	if err != nil {
		return err
	}
	start := a.pos
	if err := a.stream.Write(block); err != nil {
		return streamErr("write", err)
	}
	a.pos += BlockSize

	a.hdr = *h
	a.hdrValid = true
	a.hdrStart = start
	a.wstate = writeHeader
	a.declared = h.Size
	a.written = 0
	a.padded = h.Size == 0 // nothing to pad for empty payloads
	a.log().Debug("header written", "name", h.Name, "size", h.Size, "offset", start)
	return nil
}

// WriteFileHeader writes a regular-file header with default mode and
// the current time. Names longer than the name field fail with
// ErrNameTooLong rather than being truncated.
func (a *Archive) WriteFileHeader(name string, size int64) error {
	if len(name) > nameLen {
		return ErrNameTooLong
	}
	return a.WriteHeader(&Header{
		Name:    name,
		Mode:    defaultFileMode,
		Size:    size,
		ModTime: time.Now(),
		Type:    TypeReg,
	})
}

// WriteDirHeader writes a directory header with default mode and the
// current time. Names longer than the name field fail with
// ErrNameTooLong rather than being truncated.
func (a *Archive) WriteDirHeader(name string) error {
	if len(name) > nameLen {
		return ErrNameTooLong
	}
	return a.WriteHeader(&Header{
		Name:    name,
		Mode:    defaultDirMode,
		ModTime: time.Now(),
		Type:    TypeDir,
	})
}

// WritePayload appends payload bytes for the current entry, capped at
// the size the header declared, and returns the count accepted. It is
// the caller's responsibility to supply exactly the declared number of
// bytes in total; once the declared size is reached the trailing
// alignment padding is flushed automatically.
func (a *Archive) WritePayload(p []byte) (int, error) {
	if err := a.checkWrite(); err != nil {
		return 0, err
	}
	switch a.wstate {
	case writeFinalized:
		return 0, ErrFinalized
	case writeEmpty:
		return 0, ErrNoHeader
	}

	remaining := a.declared - a.written
	n := int64(len(p))
	if n > remaining {
		n = remaining
	}
	if n > 0 {
		if err := a.stream.Write(p[:n]); err != nil {
			return 0, streamErr("write", err)
		}
		a.pos += n
		a.written += n
		a.wstate = writePayload
	}
	if a.written == a.declared {
		if err := a.padPayload(); err != nil {
			return int(n), err
		}
	}
	return int(n), nil
}

// Finalize pads any unfinished payload and appends the end-of-archive
// terminator: two all-zero blocks. It is idempotent; a second call does
// nothing. Header and payload writes after Finalize fail.
func (a *Archive) Finalize() error {
	if err := a.checkWrite(); err != nil {
		return err
	}
	if a.wstate == writeFinalized {
		return nil
	}
	if a.wstate != writeEmpty {
		if err := a.padPayload(); err != nil {
			return err
		}
	}
	for i := 0; i < 2; i++ {
		if err := a.writeZeros(BlockSize); err != nil {
			return err
		}
	}
	a.wstate = writeFinalized
	a.hdrValid = false
	a.log().Debug("archive finalized", "bytes", a.pos)
	return nil
}
