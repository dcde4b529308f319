package ustar

import (
	"errors"
	"io"
)

// Stream is the byte backend an Archive drives all I/O through.
//
// Read must fill p exactly and Write must consume p exactly; a short
// transfer is a failure. Seek repositions to an absolute offset. The
// Archive owns the stream for its lifetime and releases it on Close.
type Stream interface {
	Read(p []byte) error
	Write(p []byte) error
	Seek(pos int64) error
	Close() error
}

// NewStream adapts an io.ReadWriteSeeker into a Stream. If rws also
// implements io.Closer, closing the stream closes it.
func NewStream(rws io.ReadWriteSeeker) Stream {
	return &seekerStream{rws: rws}
}

type seekerStream struct {
	rws io.ReadWriteSeeker
}

func (s *seekerStream) Read(p []byte) error {
	_, err := io.ReadFull(s.rws, p)
	return err
}

func (s *seekerStream) Write(p []byte) error {
	n, err := s.rws.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

func (s *seekerStream) Seek(pos int64) error {
	_, err := s.rws.Seek(pos, io.SeekStart)
	return err
}

func (s *seekerStream) Close() error {
	if c, ok := s.rws.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MemStream is an in-memory Stream backed by a byte slice. The zero
// value is an empty stream ready for writing. Writes past the end grow
// the buffer; reads past the end fail with io.ErrUnexpectedEOF.
type MemStream struct {
	data []byte
	off  int64
}

// NewMemStream returns a stream positioned at the start of data.
func NewMemStream(data []byte) *MemStream {
	return &MemStream{data: data}
}

// Bytes returns the backing slice. Useful after writing an archive into
// memory.
func (m *MemStream) Bytes() []byte {
	return m.data
}

func (m *MemStream) Read(p []byte) error {
	if m.off+int64(len(p)) > int64(len(m.data)) {
		return io.ErrUnexpectedEOF
	}
	copy(p, m.data[m.off:])
	m.off += int64(len(p))
	return nil
}

func (m *MemStream) Write(p []byte) error {
	if end := m.off + int64(len(p)); end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.off:], p)
	m.off += int64(len(p))
	return nil
}

func (m *MemStream) Seek(pos int64) error {
	if pos < 0 {
		return errors.New("negative offset")
	}
	m.off = pos
	return nil
}

func (m *MemStream) Close() error {
	return nil
}

// errNotSeekable is reported by sequential streams, which support the
// write path only (the write path never seeks).
var errNotSeekable = errors.New("stream is not seekable")

// sequentialStream adapts a forward-only writer (a compressing encoder,
// a socket) into a Stream usable by a write-mode Archive.
type sequentialStream struct {
	w io.WriteCloser
}

func (s *sequentialStream) Read(_ []byte) error {
	return errNotSeekable
}

func (s *sequentialStream) Write(p []byte) error {
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

func (s *sequentialStream) Seek(_ int64) error {
	return errNotSeekable
}

func (s *sequentialStream) Close() error {
	return s.w.Close()
}
