package protocol

import (
	"bytes"

	"github.com/muurk/sanenet/internal/wire"
)

// fakeStream serves a canned reply and records what the client wrote
type fakeStream struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newFakeStream(reply []byte) *fakeStream {
	return &fakeStream{in: bytes.NewReader(reply)}
}

func (s *fakeStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *fakeStream) Write(p []byte) (int, error) { return s.out.Write(p) }

// message encodes words, strings and records the way saned does
type message struct {
	buf bytes.Buffer
}

func (m *message) word(v int32) *message {
	_ = wire.WriteI32(&m.buf, v)
	return m
}

func (m *message) uword(v uint32) *message {
	_ = wire.WriteU32(&m.buf, v)
	return m
}

func (m *message) str(s string) *message {
	_ = wire.WriteString(&m.buf, s)
	return m
}

// nullable writes s, or a NULL string when s is empty
func (m *message) nullable(s string) *message {
	if s == "" {
		return m.word(0)
	}
	return m.str(s)
}

func (m *message) null() *message {
	return m.word(1)
}

func (m *message) device(d Device) *message {
	return m.word(0).str(d.Name).str(d.Vendor).str(d.Model).str(d.Kind)
}

func (m *message) option(o OptionDescriptor) *message {
	m.word(0).
		nullable(o.Name).
		nullable(o.Title).
		nullable(o.Description).
		word(int32(o.Type)).
		word(int32(o.Unit)).
		word(o.Size).
		word(int32(o.Cap)).
		word(int32(o.Constraint.Type))

	switch o.Constraint.Type {
	case ConstraintRange:
		if o.Constraint.Range == nil {
			return m.null()
		}
		m.word(0).word(o.Constraint.Range.Min).word(o.Constraint.Range.Max).word(o.Constraint.Range.Quant)
	case ConstraintWordList:
		n := int32(len(o.Constraint.WordList))
		m.word(n + 1).word(n)
		for _, w := range o.Constraint.WordList {
			m.word(w)
		}
	case ConstraintStringList:
		m.word(int32(len(o.Constraint.StringList) + 1))
		for _, s := range o.Constraint.StringList {
			m.str(s)
		}
		m.word(0)
	}
	return m
}

func (m *message) bytes() []byte {
	return m.buf.Bytes()
}
