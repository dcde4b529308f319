package ustar

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressed archives cannot be seeked directly, so the read frontends
// decompress the whole container into a MemStream up front. The write
// frontends need no such staging: the write path is strictly sequential
// (header, payload, pad, next header), so a compressing encoder is a
// legal write backend as-is.

// OpenZstd decompresses a zstd-compressed tar archive from r into
// memory and returns a read-mode Archive over it.
func OpenZstd(r io.Reader, opts ...Option) (*Archive, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, streamErr("open", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, streamErr("read", err)
	}
	return New(NewMemStream(data), ModeRead, opts...)
}

// NewZstdWriter returns a write-mode Archive whose output is
// zstd-compressed onto w. Close finalizes the archive and flushes the
// encoder.
func NewZstdWriter(w io.Writer, opts ...Option) (*Archive, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, streamErr("open", err)
	}
	return New(&sequentialStream{w: enc}, ModeWrite, opts...)
}

// OpenLZ4 decompresses an lz4-compressed tar archive from r into memory
// and returns a read-mode Archive over it.
func OpenLZ4(r io.Reader, opts ...Option) (*Archive, error) {
	data, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, streamErr("read", err)
	}
	return New(NewMemStream(data), ModeRead, opts...)
}

// NewLZ4Writer returns a write-mode Archive whose output is
// lz4-compressed onto w. Close finalizes the archive and flushes the
// encoder.
func NewLZ4Writer(w io.Writer, opts ...Option) (*Archive, error) {
	return New(&sequentialStream{w: lz4.NewWriter(w)}, ModeWrite, opts...)
}
