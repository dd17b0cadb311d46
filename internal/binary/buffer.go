package binary

import (
	"errors"
	"io"
)

// Buffer is an in-memory io.WriteSeeker. Writes past the end grow the
// buffer; seeking past the end and writing leaves a zero-filled gap.
type Buffer struct {
	buf []byte
	pos int64
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.buf)) {
		if end > int64(cap(b.buf)) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:end]
		}
	}
	copy(b.buf[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("binary.Buffer.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("binary.Buffer.Seek: negative position")
	}
	b.pos = abs
	return abs, nil
}
