package ustar

import (
	"fmt"
	"time"

	"github.com/meigma/ustar/internal/octal"
)

// BlockSize is the tar block size. Headers occupy exactly one block and
// payloads are padded to a block boundary.
const BlockSize = 512

// Fixed byte offsets of the header sub-fields within a block.
const (
	nameOff     = 0
	nameLen     = 100
	modeOff     = 100
	modeLen     = 8
	ownerOff    = 108
	ownerLen    = 8
	groupOff    = 116
	groupLen    = 8
	sizeOff     = 124
	sizeLen     = 12
	mtimeOff    = 136
	mtimeLen    = 12
	checksumOff = 148
	checksumLen = 8
	typeOff     = 156
	linknameOff = 157
	linknameLen = 100
)

// maxFieldValue is the largest value any numeric header field can carry.
// Field arithmetic is 32-bit, matching the octal codec.
const maxFieldValue = 1<<32 - 1

// headerChecksum sums the block bytes with the checksum field counted as
// eight spaces, which contributes the constant 256 base offset.
func headerChecksum(block []byte) uint32 {
	sum := uint32(256)
	for _, b := range block[:checksumOff] {
		sum += uint32(b)
	}
	for _, b := range block[typeOff:BlockSize] {
		sum += uint32(b)
	}
	return sum
}

// DecodeHeader parses a 512-byte header block.
//
// It returns ErrNullRecord when the block is an end-of-archive
// terminator (checksum field starting with a zero byte), ErrBadChecksum
// when the declared checksum does not match the block bytes, and
// ErrOverflow when a numeric field is malformed.
func DecodeHeader(block []byte) (*Header, error) {
	if len(block) < BlockSize {
		return nil, fmt.Errorf("ustar: header block is %d bytes, need %d", len(block), BlockSize)
	}

	// A zero byte leading the checksum field marks the terminator record.
	if block[checksumOff] == 0 {
		return nil, ErrNullRecord
	}

	declared, err := octal.Parse(block[checksumOff : checksumOff+checksumLen])
	if err != nil {
		return nil, ErrOverflow
	}
	if headerChecksum(block) != declared {
		return nil, ErrBadChecksum
	}

	mode, err := octal.Parse(block[modeOff : modeOff+modeLen])
	if err != nil {
		return nil, ErrOverflow
	}
	uid, err := octal.Parse(block[ownerOff : ownerOff+ownerLen])
	if err != nil {
		return nil, ErrOverflow
	}
	gid, err := octal.Parse(block[groupOff : groupOff+groupLen])
	if err != nil {
		return nil, ErrOverflow
	}
	size, err := octal.Parse(block[sizeOff : sizeOff+sizeLen])
	if err != nil {
		return nil, ErrOverflow
	}
	mtime, err := octal.Parse(block[mtimeOff : mtimeOff+mtimeLen])
	if err != nil {
		return nil, ErrOverflow
	}

	return &Header{
		Name:     cString(block[nameOff : nameOff+nameLen]),
		LinkName: cString(block[linknameOff : linknameOff+linknameLen]),
		Mode:     mode,
		UID:      int(uid),
		GID:      int(gid),
		Size:     int64(size),
		ModTime:  time.Unix(int64(mtime), 0),
		Type:     block[typeOff],
	}, nil
}

// EncodeHeader serializes h into a freshly allocated 512-byte block,
// computing and embedding the checksum. A zero Type encodes as TypeReg.
// Names longer than the field are truncated; a name of exactly the field
// width is stored without a terminating NUL, as the format allows.
// Numeric values that do not fit their field fail with ErrOverflow.
func EncodeHeader(h *Header) ([]byte, error) {
	block := make([]byte, BlockSize)

	var mtime int64
	if !h.ModTime.IsZero() {
		mtime = h.ModTime.Unix()
	}
	fields := []struct {
		off, n int
		v      int64
	}{
		{modeOff, modeLen, int64(h.Mode)},
		{ownerOff, ownerLen, int64(h.UID)},
		{groupOff, groupLen, int64(h.GID)},
		{sizeOff, sizeLen, h.Size},
		{mtimeOff, mtimeLen, mtime},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > maxFieldValue {
			return nil, ErrOverflow
		}
		if err := octal.Print(block[f.off:f.off+f.n], uint32(f.v)); err != nil {
			return nil, ErrOverflow
		}
	}

	if h.Type == 0 {
		block[typeOff] = TypeReg
	} else {
		block[typeOff] = h.Type
	}
	copy(block[nameOff:nameOff+nameLen], h.Name)
	copy(block[linknameOff:linknameOff+linknameLen], h.LinkName)

	// Checksum goes last, over the otherwise complete block.
	if err := printChecksum(block); err != nil {
		return nil, err
	}
	return block, nil
}

// printChecksum computes the checksum of block and writes it into the
// checksum field as six octal digits, a NUL, and a trailing space.
func printChecksum(block []byte) error {
	if err := octal.Print(block[checksumOff:checksumOff+7], headerChecksum(block)); err != nil {
		return ErrOverflow
	}
	block[checksumOff+7] = ' '
	return nil
}

// cString returns the bytes of field up to the first NUL as a string.
func cString(field []byte) string {
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}
