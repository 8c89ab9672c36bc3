package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WordSize is the width of every integer on the wire
const WordSize = 4

// preallocLimit bounds the buffer ReadExact allocates up front. Larger
// spans grow as bytes actually arrive, so a corrupt length word cannot
// force a huge allocation before the stream runs dry.
const preallocLimit = 64 * 1024

// WriteI32 writes a big-endian signed word
func WriteI32(w io.Writer, v int32) error {
	return WriteU32(w, uint32(v))
}

// WriteU32 writes a big-endian unsigned word
func WriteU32(w io.Writer, v uint32) error {
	var buf [WordSize]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return WriteBytes(w, buf[:])
}

// ReadI32 reads a big-endian signed word
func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

// ReadU32 reads a big-endian unsigned word
func ReadU32(r io.Reader) (uint32, error) {
	var buf [WordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, NewTransportError("failed to read word", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteBytes writes b in full or fails
func WriteBytes(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return NewTransportError(fmt.Sprintf("failed to write %d bytes", len(b)), err)
	}
	if n != len(b) {
		return NewTransportError(fmt.Sprintf("wrote %d of %d bytes", n, len(b)), io.ErrShortWrite)
	}
	return nil
}

// ReadExact reads exactly n bytes
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, NewMalformedError(fmt.Sprintf("negative read length %d", n), nil)
	}

	if n <= preallocLimit {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, NewTransportError(fmt.Sprintf("failed to read %d bytes", n), err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	buf.Grow(preallocLimit)
	copied, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, NewTransportError(fmt.Sprintf("read %d of %d bytes", copied, n), err)
	}
	return buf.Bytes(), nil
}
