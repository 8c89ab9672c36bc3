package wire

import (
	"bytes"
	"io"
	"testing"
)

type pair struct {
	A string
	B int32
}

func decodePair(r io.Reader) (pair, error) {
	a, err := ReadString(r)
	if err != nil {
		return pair{}, err
	}
	b, err := ReadI32(r)
	if err != nil {
		return pair{}, err
	}
	return pair{A: a, B: b}, nil
}

// arrayBuilder encodes counted arrays of nullable pairs
type arrayBuilder struct {
	buf bytes.Buffer
}

func (b *arrayBuilder) word(v int32) *arrayBuilder {
	_ = WriteI32(&b.buf, v)
	return b
}

func (b *arrayBuilder) present(p pair) *arrayBuilder {
	b.word(0)
	_ = WriteString(&b.buf, p.A)
	return b.word(p.B)
}

func (b *arrayBuilder) null() *arrayBuilder {
	return b.word(1)
}

func collect(t *testing.T, r io.Reader) ([]Optional[pair], error) {
	t.Helper()
	it, err := NewArrayIterator(r, DecodePointer[pair](decodePair))
	if err != nil {
		return nil, err
	}
	var out []Optional[pair]
	for it.Next() {
		out = append(out, it.Value())
	}
	return out, it.Err()
}

func TestArrayIteratorTerminated(t *testing.T) {
	b := &arrayBuilder{}
	b.word(3).
		present(pair{"first", 1}).
		present(pair{"second", 2}).
		null()
	// Sentinel that belongs to the next message
	b.word(0x5a5a5a5a)

	r := bytes.NewReader(b.buf.Bytes())
	got, err := collect(t, r)
	if err != nil {
		t.Fatalf("iteration error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d elements, want 3", len(got))
	}
	for i, want := range []pair{{"first", 1}, {"second", 2}} {
		v, ok := got[i].Get()
		if !ok {
			t.Fatalf("element %d absent, want %+v", i, want)
		}
		if v != want {
			t.Errorf("element %d = %+v, want %+v", i, v, want)
		}
	}
	if got[2].IsPresent() {
		t.Error("terminator should be absent")
	}

	next, err := ReadU32(r)
	if err != nil {
		t.Fatalf("reading sentinel: %v", err)
	}
	if next != 0x5a5a5a5a {
		t.Errorf("sentinel = 0x%08x, iterator consumed bytes past the terminator", next)
	}
}

func TestArrayIteratorCountExhausted(t *testing.T) {
	b := &arrayBuilder{}
	b.word(2).present(pair{"a", 10}).present(pair{"b", 20})

	r := bytes.NewReader(b.buf.Bytes())
	got, err := collect(t, r)
	if err != nil {
		t.Fatalf("iteration error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d elements, want 2", len(got))
	}
	for i, e := range got {
		if !e.IsPresent() {
			t.Errorf("element %d should be present", i)
		}
	}
	if r.Len() != 0 {
		t.Errorf("%d bytes left unread", r.Len())
	}
}

func TestArrayIteratorEmpty(t *testing.T) {
	tests := []struct {
		name string
		b    *arrayBuilder
	}{
		{"zero count", (&arrayBuilder{}).word(0)},
		{"terminator only", (&arrayBuilder{}).word(1).null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, bytes.NewReader(tt.b.buf.Bytes()))
			if err != nil {
				t.Fatalf("iteration error = %v", err)
			}
			for _, e := range got {
				if e.IsPresent() {
					t.Errorf("unexpected present element %v", e)
				}
			}
		})
	}
}

func TestArrayIteratorInteriorAbsent(t *testing.T) {
	b := &arrayBuilder{}
	b.word(3).present(pair{"a", 1}).null().present(pair{"c", 3})

	got, err := collect(t, bytes.NewReader(b.buf.Bytes()))
	if err == nil {
		t.Fatal("expected error for interior absent element")
	}
	if !IsMalformed(err) {
		t.Errorf("error = %v, want malformed", err)
	}
	if len(got) != 1 {
		t.Errorf("yielded %d elements before failing, want 1", len(got))
	}
}

func TestArrayIteratorElementFailure(t *testing.T) {
	t.Run("truncated element", func(t *testing.T) {
		b := &arrayBuilder{}
		b.word(2).present(pair{"a", 1}).word(0)
		_ = WriteString(&b.buf, "partial")

		_, err := collect(t, bytes.NewReader(b.buf.Bytes()))
		if !IsTransport(err) {
			t.Errorf("error = %v, want transport error", err)
		}
	})

	t.Run("malformed element", func(t *testing.T) {
		b := &arrayBuilder{}
		b.word(2).word(0).word(0).word(7).null()

		_, err := collect(t, bytes.NewReader(b.buf.Bytes()))
		if !IsMalformed(err) {
			t.Errorf("error = %v, want malformed error", err)
		}
	})
}

func TestNewArrayIteratorNegativeCount(t *testing.T) {
	b := (&arrayBuilder{}).word(-4)
	_, err := NewArrayIterator(bytes.NewReader(b.buf.Bytes()), DecodePointer[pair](decodePair))
	if !IsMalformed(err) {
		t.Errorf("NewArrayIterator() error = %v, want malformed", err)
	}
}

func TestReadWordArray(t *testing.T) {
	b := (&arrayBuilder{}).word(4).word(3).word(75).word(150).word(-300)
	got, err := ReadWordArray(bytes.NewReader(b.buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadWordArray() error = %v", err)
	}
	want := []int32{3, 75, 150, -300}
	if len(got) != len(want) {
		t.Fatalf("ReadWordArray() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %d, want %d", i, got[i], want[i])
		}
	}

	short := (&arrayBuilder{}).word(3).word(1)
	if _, err := ReadWordArray(bytes.NewReader(short.buf.Bytes())); !IsTransport(err) {
		t.Errorf("ReadWordArray() on short stream error = %v, want transport", err)
	}
}

func TestOptional(t *testing.T) {
	some := Some("x")
	if v, ok := some.Get(); !ok || v != "x" {
		t.Errorf("Some.Get() = %q, %v", v, ok)
	}
	if some.OrElse("y") != "x" {
		t.Error("Some.OrElse() should return held value")
	}

	none := None[string]()
	if none.IsPresent() {
		t.Error("None should be absent")
	}
	if none.OrElse("y") != "y" {
		t.Error("None.OrElse() should return fallback")
	}
	if none.String() != "None" || some.String() != "Some(x)" {
		t.Errorf("String() = %q / %q", none.String(), some.String())
	}
}
