// Package wire implements the byte-level encoding used by the SANE network
// protocol.
//
// Every integer on the wire is a 4-byte big-endian word. Strings are sent
// as a length word equal to the byte length plus one, the bytes, and a
// trailing NUL; a length word of 0 denotes a NULL string. References to
// records are a word that is zero when the record follows and non-zero
// when it is NULL. Arrays are a count word followed by that many elements.
//
// # Decoding
//
// Record types supply a DecodeFunc. DecodePointer turns it into a decoder
// for nullable records and ArrayIterator walks a counted array of them,
// stopping at the first absent element:
//
//	it, err := wire.NewArrayIterator(conn, wire.DecodePointer[Device](decodeDevice))
//	if err != nil {
//	    return err
//	}
//	for it.Next() {
//	    if dev, ok := it.Value().Get(); ok {
//	        devices = append(devices, dev)
//	    }
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// Only primitives and strings have an encoding side; the client never
// sends records.
//
// # Error Handling
//
// All failures are *Error values carrying an ErrorType:
//   - ErrTypeTransport: the stream failed (reset, short read or write, deadline)
//   - ErrTypeMalformed: bytes arrived but do not decode
//   - ErrTypeLengthExceeded: a string is too long for its length word
//
// The protocol has no resynchronisation point. After any error the
// position in the stream is undefined and the connection must be dropped.
//
// # Thread Safety
//
// The functions hold no state. A stream must not be shared between
// goroutines while a request/response exchange is in flight.
package wire
