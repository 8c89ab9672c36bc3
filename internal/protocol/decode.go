package protocol

import (
	"fmt"
	"io"

	"github.com/muurk/sanenet/internal/wire"
)

// decodeDevice reads the four device strings in wire order: name, vendor,
// model, type
func decodeDevice(r io.Reader) (Device, error) {
	var fields [4]string
	for i := range fields {
		s, err := wire.ReadOptionalString(r)
		if err != nil {
			return Device{}, fmt.Errorf("device field %d: %w", i, err)
		}
		fields[i] = s.OrElse("")
	}
	return Device{
		Name:   fields[0],
		Vendor: fields[1],
		Model:  fields[2],
		Kind:   fields[3],
	}, nil
}

// decodeOptionDescriptor reads name, title, description, then the type,
// unit, size, capability and constraint-type words, then the constraint
func decodeOptionDescriptor(r io.Reader) (OptionDescriptor, error) {
	var texts [3]string
	for i := range texts {
		s, err := wire.ReadOptionalString(r)
		if err != nil {
			return OptionDescriptor{}, fmt.Errorf("option text field %d: %w", i, err)
		}
		texts[i] = s.OrElse("")
	}

	var words [5]int32
	for i := range words {
		w, err := wire.ReadI32(r)
		if err != nil {
			return OptionDescriptor{}, fmt.Errorf("option %q word %d: %w", texts[0], i, err)
		}
		words[i] = w
	}

	opt := OptionDescriptor{
		Name:        texts[0],
		Title:       texts[1],
		Description: texts[2],
		Type:        ValueType(words[0]),
		Unit:        Unit(words[1]),
		Size:        words[2],
		Cap:         Capability(words[3]),
	}

	constraint, err := decodeConstraint(r, ConstraintType(words[4]))
	if err != nil {
		return OptionDescriptor{}, fmt.Errorf("option %q constraint: %w", opt.Name, err)
	}
	opt.Constraint = constraint

	return opt, nil
}

func decodeConstraint(r io.Reader, ct ConstraintType) (Constraint, error) {
	c := Constraint{Type: ct}

	switch ct {
	case ConstraintNone:
		return c, nil

	case ConstraintRange:
		rng, err := wire.DecodePointer[Range](decodeRange)(r)
		if err != nil {
			return c, err
		}
		if v, ok := rng.Get(); ok {
			c.Range = &v
		}
		return c, nil

	case ConstraintWordList:
		words, err := wire.ReadWordArray(r)
		if err != nil {
			return c, err
		}
		// The first word counts the entries that follow it
		if len(words) > 0 {
			if int(words[0]) != len(words)-1 {
				return c, wire.NewMalformedError(
					fmt.Sprintf("word list announces %d entries but carries %d", words[0], len(words)-1), nil)
			}
			c.WordList = words[1:]
		}
		return c, nil

	case ConstraintStringList:
		// An empty entry is a valid choice; only the NULL string ends the list
		it, err := wire.NewArrayIterator[string](r, wire.ReadNullableString)
		if err != nil {
			return c, err
		}
		for it.Next() {
			if s, ok := it.Value().Get(); ok {
				c.StringList = append(c.StringList, s)
			}
		}
		if err := it.Err(); err != nil {
			return c, err
		}
		return c, nil

	default:
		// The payload size depends on the type, so nothing after it can be read
		return c, wire.NewMalformedError(fmt.Sprintf("unknown constraint type %d", int32(ct)), nil)
	}
}

func decodeRange(r io.Reader) (Range, error) {
	var words [3]int32
	for i := range words {
		w, err := wire.ReadI32(r)
		if err != nil {
			return Range{}, err
		}
		words[i] = w
	}
	return Range{Min: words[0], Max: words[1], Quant: words[2]}, nil
}
