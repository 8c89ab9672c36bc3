package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// MaxStringLength is the longest string whose length+1 still fits the
// signed 32-bit length word
const MaxStringLength = math.MaxInt32 - 1

// WriteString writes s as length word (len+1), the bytes, and a NUL
func WriteString(w io.Writer, s string) error {
	if err := checkStringLength(len(s)); err != nil {
		return err
	}

	buf := make([]byte, WordSize+len(s)+1)
	binary.BigEndian.PutUint32(buf, uint32(len(s)+1))
	copy(buf[WordSize:], s)
	return WriteBytes(w, buf)
}

func checkStringLength(n int) error {
	if n > MaxStringLength {
		return NewLengthExceededError(n, MaxStringLength)
	}
	return nil
}

// ReadString reads a non-NULL string. A zero or negative length word is
// malformed here; use ReadOptionalString where the peer may send NULL.
func ReadString(r io.Reader) (string, error) {
	length, err := ReadI32(r)
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", NewMalformedError(fmt.Sprintf("invalid string length word %d", length), nil)
	}
	return readStringBody(r, int(length))
}

// ReadOptionalString reads a string that may be absent. A length word of
// 0 (NULL) or 1 (just the terminator) decodes as absent.
func ReadOptionalString(r io.Reader) (Optional[string], error) {
	length, err := ReadI32(r)
	if err != nil {
		return None[string](), err
	}
	if length < 0 {
		return None[string](), NewMalformedError(fmt.Sprintf("invalid string length word %d", length), nil)
	}
	if length == 0 {
		return None[string](), nil
	}

	s, err := readStringBody(r, int(length))
	if err != nil {
		return None[string](), err
	}
	if s == "" {
		return None[string](), nil
	}
	return Some(s), nil
}

// ReadNullableString reads a string where only the NULL string (length
// word 0) is absent. Unlike ReadOptionalString, a length word of 1 is a
// present empty string.
func ReadNullableString(r io.Reader) (Optional[string], error) {
	length, err := ReadI32(r)
	if err != nil {
		return None[string](), err
	}
	if length < 0 {
		return None[string](), NewMalformedError(fmt.Sprintf("invalid string length word %d", length), nil)
	}
	if length == 0 {
		return None[string](), nil
	}

	s, err := readStringBody(r, int(length))
	if err != nil {
		return None[string](), err
	}
	return Some(s), nil
}

// readStringBody reads length bytes, the last of which must be the NUL
// terminator, and validates the rest as UTF-8
func readStringBody(r io.Reader, length int) (string, error) {
	data, err := ReadExact(r, length)
	if err != nil {
		return "", err
	}

	if data[length-1] != 0 {
		return "", NewMalformedError(fmt.Sprintf("string of length %d is not NUL-terminated (last byte 0x%02x)", length-1, data[length-1]), nil)
	}

	text := data[:length-1]
	if !utf8.Valid(text) {
		return "", NewMalformedError(fmt.Sprintf("string of length %d is not valid UTF-8", len(text)), nil)
	}
	return string(text), nil
}
