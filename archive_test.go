package ustar

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestArchive produces the two-entry archive used throughout:
// a directory "d/" and a file "d/a.txt" holding "hello".
func writeTestArchive(t *testing.T) []byte {
	t.Helper()

	ms := NewMemStream(nil)
	a, err := New(ms, ModeWrite)
	require.NoError(t, err)

	require.NoError(t, a.WriteDirHeader("d/"))
	require.NoError(t, a.WriteFileHeader("d/a.txt", 5))
	n, err := a.WritePayload([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, a.Close())

	return ms.Bytes()
}

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := New(NewMemStream(writeTestArchive(t)), ModeRead)
	require.NoError(t, err)
	return a
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	data := writeTestArchive(t)

	// dir header + file header + one padded payload block + terminator.
	assert.Len(t, data, 5*BlockSize)

	a := openTestArchive(t)
	defer a.Close()

	var names []string
	err := a.ForEach(func(h *Header) error {
		names = append(names, h.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d/", "d/a.txt"}, names)

	hdr, err := a.Find("d/a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 5, hdr.Size)
	assert.Equal(t, TypeReg, hdr.Type)

	// Drain the payload in small reads.
	var content []byte
	buf := make([]byte, 3)
	for {
		n, err := a.ReadPayload(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content = append(content, buf[:n]...)
	}
	assert.Equal(t, "hello", string(content))
	assert.True(t, a.AtPayloadEnd())
}

func TestFindNotFound(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	defer a.Close()

	_, err := a.Find("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	t.Run("write surface misuse", func(t *testing.T) {
		a, err := New(NewMemStream(nil), ModeWrite)
		require.NoError(t, err)

		_, err = a.WritePayload([]byte("x"))
		assert.ErrorIs(t, err, ErrNoHeader)

		assert.ErrorIs(t, a.Rewind(), ErrMode)
		_, err = a.Next()
		assert.ErrorIs(t, err, ErrMode)
		_, err = a.ReadPayload(make([]byte, 1))
		assert.ErrorIs(t, err, ErrMode)
		_, err = a.SeekPayload(0, io.SeekStart)
		assert.ErrorIs(t, err, ErrMode)
	})

	t.Run("read surface misuse", func(t *testing.T) {
		a := openTestArchive(t)
		defer a.Close()

		assert.ErrorIs(t, a.WriteHeader(&Header{Name: "x"}), ErrMode)
		assert.ErrorIs(t, a.WriteFileHeader("x", 0), ErrMode)
		assert.ErrorIs(t, a.WriteDirHeader("x"), ErrMode)
		_, err := a.WritePayload([]byte("x"))
		assert.ErrorIs(t, err, ErrMode)
		assert.ErrorIs(t, a.Finalize(), ErrMode)
	})

	t.Run("payload ops need a current entry", func(t *testing.T) {
		a := openTestArchive(t)
		defer a.Close()

		_, err := a.ReadPayload(make([]byte, 1))
		assert.ErrorIs(t, err, ErrNoHeader)
		_, err = a.SeekPayload(0, io.SeekStart)
		assert.ErrorIs(t, err, ErrNoHeader)
	})
}

func TestWriteAfterFinalize(t *testing.T) {
	t.Parallel()

	a, err := New(NewMemStream(nil), ModeWrite)
	require.NoError(t, err)
	require.NoError(t, a.Finalize())

	assert.ErrorIs(t, a.WriteHeader(&Header{Name: "x"}), ErrFinalized)
	_, err = a.WritePayload([]byte("x"))
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestFinalizeIdempotent(t *testing.T) {
	t.Parallel()

	ms := NewMemStream(nil)
	a, err := New(ms, ModeWrite)
	require.NoError(t, err)

	require.NoError(t, a.WriteFileHeader("a", 1))
	_, err = a.WritePayload([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, a.Finalize())
	want := len(ms.Bytes())
	require.NoError(t, a.Finalize())
	assert.Len(t, ms.Bytes(), want, "second finalize must not append terminator blocks")

	// Close after finalize must not re-finalize either.
	require.NoError(t, a.Close())
	assert.Len(t, ms.Bytes(), want)
	require.NoError(t, a.Close(), "close is idempotent")
}

func TestCloseFinalizes(t *testing.T) {
	t.Parallel()

	ms := NewMemStream(nil)
	a, err := New(ms, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, a.WriteFileHeader("a", 3))
	_, err = a.WritePayload([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	// header + padded payload + terminator.
	assert.Len(t, ms.Bytes(), 4*BlockSize)

	_, err = a.Next()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, a.WriteHeader(&Header{Name: "x"}), ErrClosed)
}

func TestWritePayloadCapped(t *testing.T) {
	t.Parallel()

	ms := NewMemStream(nil)
	a, err := New(ms, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, a.WriteFileHeader("a", 5))

	// Excess bytes are truncated to the declared budget.
	n, err := a.WritePayload([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// The budget is spent; further writes accept nothing.
	n, err = a.WritePayload([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, a.Finalize())
	data := ms.Bytes()
	assert.Equal(t, "hello", string(data[BlockSize:BlockSize+5]))
	assert.Equal(t, make([]byte, BlockSize-5), data[BlockSize+5:2*BlockSize], "padding is zeroed")
}

func TestWriteHeaderPadsShortPayload(t *testing.T) {
	t.Parallel()

	ms := NewMemStream(nil)
	a, err := New(ms, ModeWrite)
	require.NoError(t, err)

	// Declare 10 bytes but deliver only 4; the next header must still
	// start on a block boundary.
	require.NoError(t, a.WriteFileHeader("short", 10))
	_, err = a.WritePayload([]byte("abcd"))
	require.NoError(t, err)
	require.NoError(t, a.WriteFileHeader("next", 0))

	data := ms.Bytes()
	require.Len(t, data, 3*BlockSize)
	h, err := DecodeHeader(data[2*BlockSize:])
	require.NoError(t, err)
	assert.Equal(t, "next", h.Name)
}

func TestReadPayloadBoundary(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	defer a.Close()

	_, err := a.Find("d/a.txt")
	require.NoError(t, err)

	// An oversized buffer reads exactly the payload, never the padding.
	buf := make([]byte, 2*BlockSize)
	n, err := a.ReadPayload(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))

	n, err = a.ReadPayload(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSeekPayload(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	defer a.Close()
	_, err := a.Find("d/a.txt")
	require.NoError(t, err)

	off, err := a.SeekPayload(2, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 2, off)

	buf := make([]byte, 16)
	n, err := a.ReadPayload(buf)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(buf[:n]))

	off, err = a.SeekPayload(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 0, off)

	off, err = a.SeekPayload(1, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 1, off)

	_, err = a.SeekPayload(0, io.SeekEnd)
	require.NoError(t, err)
	assert.True(t, a.AtPayloadEnd())

	// Out-of-range targets leave the cursor where it was.
	_, err = a.SeekPayload(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrRange)
	_, err = a.SeekPayload(6, io.SeekStart)
	assert.ErrorIs(t, err, ErrRange)
	assert.True(t, a.AtPayloadEnd())
}

func TestNextAtTerminator(t *testing.T) {
	t.Parallel()

	// An archive holding nothing but the terminator.
	ms := NewMemStream(nil)
	w, err := New(ms, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	a, err := New(NewMemStream(ms.Bytes()), ModeRead)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Next()
	assert.ErrorIs(t, err, ErrNullRecord)

	// ForEach treats the terminator as normal completion.
	require.NoError(t, a.ForEach(func(*Header) error {
		t.Fatal("visitor must not run on an empty archive")
		return nil
	}))
}

func TestNextOnCorruptData(t *testing.T) {
	t.Parallel()

	// All-'0' bytes parse as a zero checksum that cannot match the
	// structural sum: corruption, not a terminator.
	garbage := bytes.Repeat([]byte{'0'}, 2*BlockSize)
	a, err := New(NewMemStream(garbage), ModeRead)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Next()
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestNextOnBadNumericField(t *testing.T) {
	t.Parallel()

	// A block whose checksum field holds a non-octal byte is malformed,
	// distinct from a checksum mismatch.
	block := bytes.Repeat([]byte{'0'}, BlockSize)
	block[checksumOff] = '9'
	a, err := New(NewMemStream(block), ModeRead)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Next()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestForEachVisitorAbort(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	defer a.Close()

	stop := errors.New("stop")
	visits := 0
	err := a.ForEach(func(*Header) error {
		visits++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visits)
}

func TestNameTooLong(t *testing.T) {
	t.Parallel()

	a, err := New(NewMemStream(nil), ModeWrite)
	require.NoError(t, err)
	defer a.Close()

	long := string(make([]byte, nameLen+1))
	assert.ErrorIs(t, a.WriteFileHeader(long, 0), ErrNameTooLong)
	assert.ErrorIs(t, a.WriteDirHeader(long), ErrNameTooLong)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.tar")

	w, err := OpenFile(path, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.WriteFileHeader("greeting", 2))
	_, err = w.WritePayload([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4*BlockSize, info.Size())

	r, err := OpenFile(path, ModeRead)
	require.NoError(t, err)
	defer r.Close()

	hdr, err := r.Find("greeting")
	require.NoError(t, err)
	buf := make([]byte, hdr.Size)
	_, err = r.ReadPayload(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf))
}

// failStream fails selected primitives and passes everything else
// through to an in-memory stream.
type failStream struct {
	*MemStream
	fail map[string]error
}

func (f *failStream) Read(p []byte) error {
	if err := f.fail["read"]; err != nil {
		return err
	}
	return f.MemStream.Read(p)
}

func (f *failStream) Write(p []byte) error {
	if err := f.fail["write"]; err != nil {
		return err
	}
	return f.MemStream.Write(p)
}

func (f *failStream) Seek(pos int64) error {
	if err := f.fail["seek"]; err != nil {
		return err
	}
	return f.MemStream.Seek(pos)
}

func (f *failStream) Close() error {
	if err := f.fail["close"]; err != nil {
		return err
	}
	return f.MemStream.Close()
}

func TestStreamErrorPropagation(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	t.Run("read failure", func(t *testing.T) {
		fs := &failStream{MemStream: NewMemStream(writeTestArchive(t)), fail: map[string]error{"read": boom}}
		a, err := New(fs, ModeRead)
		require.NoError(t, err)

		_, err = a.Next()
		var se *StreamError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "read", se.Op)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("write failure", func(t *testing.T) {
		fs := &failStream{MemStream: NewMemStream(nil), fail: map[string]error{"write": boom}}
		a, err := New(fs, ModeWrite)
		require.NoError(t, err)

		err = a.WriteHeader(&Header{Name: "x"})
		var se *StreamError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "write", se.Op)
	})

	t.Run("close failure", func(t *testing.T) {
		fs := &failStream{MemStream: NewMemStream(writeTestArchive(t)), fail: map[string]error{"close": boom}}
		a, err := New(fs, ModeRead)
		require.NoError(t, err)

		err = a.Close()
		var se *StreamError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "close", se.Op)
	})

	t.Run("finalize failure wins over close failure", func(t *testing.T) {
		closeErr := errors.New("close failed")
		fs := &failStream{MemStream: NewMemStream(nil), fail: map[string]error{}}
		a, err := New(fs, ModeWrite)
		require.NoError(t, err)
		require.NoError(t, a.WriteFileHeader("x", 1))

		// Arm both failures: Close must run finalize (which hits the write
		// error) and the backend close (which hits the close error), and
		// report the finalize error.
		fs.fail["write"] = boom
		fs.fail["close"] = closeErr
		err = a.Close()
		require.ErrorIs(t, err, boom, "finalize's error takes precedence")
	})
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "read", ModeRead.String())
	assert.Equal(t, "write", ModeWrite.String())
	assert.Equal(t, "invalid", Mode(7).String())

	_, err := New(NewMemStream(nil), Mode(7))
	assert.ErrorIs(t, err, ErrMode)
}

func TestHeaderAccessor(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	defer a.Close()

	_, ok := a.Header()
	assert.False(t, ok, "no current entry before Next")

	h, err := a.Next()
	require.NoError(t, err)
	got, ok := a.Header()
	require.True(t, ok)
	assert.Equal(t, h.Name, got.Name)
	assert.Equal(t, ModeRead, a.Mode())
}
