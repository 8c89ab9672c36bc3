package wire

import (
	"fmt"
	"io"
)

// DecodeFunc decodes one value of T from the stream. Each protocol record
// type provides one; the generic helpers below compose them.
type DecodeFunc[T any] func(r io.Reader) (T, error)

// DecodePointer lifts decode into a decoder for a nullable record. On the
// wire a record reference is a word that is zero when the record follows
// and non-zero when it is NULL.
func DecodePointer[T any](decode DecodeFunc[T]) DecodeFunc[Optional[T]] {
	return func(r io.Reader) (Optional[T], error) {
		isNull, err := ReadU32(r)
		if err != nil {
			return None[T](), err
		}
		if isNull != 0 {
			return None[T](), nil
		}
		v, err := decode(r)
		if err != nil {
			return None[T](), err
		}
		return Some(v), nil
	}
}

// ArrayIterator walks a counted array of optional elements. Iteration ends
// when the count is exhausted or after the first absent element, which is
// the array's terminator. An absent element with counted elements still
// behind it is malformed: stopping there would leave them in the stream.
type ArrayIterator[T any] struct {
	r       io.Reader
	decode  DecodeFunc[Optional[T]]
	count   int
	index   int
	current Optional[T]
	done    bool
	err     error
}

// NewArrayIterator reads the array's count word and returns an iterator
// over its elements
func NewArrayIterator[T any](r io.Reader, decode DecodeFunc[Optional[T]]) (*ArrayIterator[T], error) {
	count, err := ReadI32(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, NewMalformedError(fmt.Sprintf("negative array length %d", count), nil)
	}
	return &ArrayIterator[T]{r: r, decode: decode, count: int(count)}, nil
}

// Next advances to the next element. It returns false when the array is
// finished or an error occurred; check Err afterwards.
func (it *ArrayIterator[T]) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.index >= it.count {
		it.done = true
		return false
	}

	v, err := it.decode(it.r)
	if err != nil {
		it.err = fmt.Errorf("array element %d of %d: %w", it.index, it.count, err)
		return false
	}
	it.index++

	if !v.IsPresent() {
		if it.index < it.count {
			it.err = NewMalformedError(
				fmt.Sprintf("absent element at index %d precedes %d remaining elements", it.index-1, it.count-it.index), nil)
			return false
		}
		it.done = true
	}

	it.current = v
	return true
}

// Value returns the element produced by the last successful Next
func (it *ArrayIterator[T]) Value() Optional[T] {
	return it.current
}

// Err returns the first error encountered during iteration
func (it *ArrayIterator[T]) Err() error {
	return it.err
}

// Len returns the element count announced by the peer
func (it *ArrayIterator[T]) Len() int {
	return it.count
}

// ReadWordArray reads a counted array of words
func ReadWordArray(r io.Reader) ([]int32, error) {
	count, err := ReadI32(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, NewMalformedError(fmt.Sprintf("negative word array length %d", count), nil)
	}

	words := make([]int32, 0, min(int(count), preallocLimit/WordSize))
	for i := 0; i < int(count); i++ {
		w, err := ReadI32(r)
		if err != nil {
			return nil, fmt.Errorf("word %d of %d: %w", i, count, err)
		}
		words = append(words, w)
	}
	return words, nil
}
