package wire

import (
	"math"

	"github.com/wippyai/wasm-http/errors"
)

// Encoder appends kind-tagged values to a growing byte buffer.
// Methods return the Encoder so calls can be chained.
type Encoder struct {
	err error
	buf []byte
}

// NewEncoder creates an Encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// NewEncoderSize creates an Encoder whose buffer has room for size bytes.
func NewEncoderSize(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// Reset clears the buffer and any sticky error, keeping the allocation.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

// Len returns the number of bytes written.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Data returns the written bytes. The slice aliases the encoder buffer.
func (e *Encoder) Data() []byte {
	return e.buf
}

// Err returns the first error encountered, if any.
func (e *Encoder) Err() error {
	return e.err
}

// Finish returns the written bytes or the first error encountered.
func (e *Encoder) Finish() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

func (e *Encoder) fail(err error) *Encoder {
	if e.err == nil {
		e.err = err
	}
	return e
}

func (e *Encoder) length(n int, what string) (uint32, bool) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		e.fail(errors.Overflow(errors.PhaseEncode, []string{what}, n, "u32"))
		return 0, false
	}
	return uint32(n), true
}

// Nil writes the absent-value sentinel.
func (e *Encoder) Nil() *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(NilKind))
	return e
}

// Error writes the in-band error sentinel followed by the error message.
func (e *Encoder) Error(err error) *Encoder {
	if e.err != nil {
		return e
	}
	if err == nil {
		return e.fail(errors.NilPointer(errors.PhaseEncode, []string{"error"}, "error"))
	}
	e.buf = append(e.buf, byte(ErrorKind))
	return e.String(err.Error())
}

// Bool writes a boolean.
func (e *Encoder) Bool(v bool) *Encoder {
	if e.err != nil {
		return e
	}
	var b byte
	if v {
		b = 1
	}
	e.buf = append(e.buf, byte(BoolKind), b)
	return e
}

// Uint32 writes an unsigned 32-bit integer.
func (e *Encoder) Uint32(v uint32) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(Uint32Kind))
	e.buf = appendUvarint32(e.buf, v)
	return e
}

// Uint64 writes an unsigned 64-bit integer.
func (e *Encoder) Uint64(v uint64) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(Uint64Kind))
	e.buf = appendUvarint64(e.buf, v)
	return e
}

// Int32 writes a signed 32-bit integer.
func (e *Encoder) Int32(v int32) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(Int32Kind))
	e.buf = appendUvarint32(e.buf, zigzag32(v))
	return e
}

// Int64 writes a signed 64-bit integer.
func (e *Encoder) Int64(v int64) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(Int64Kind))
	e.buf = appendUvarint64(e.buf, zigzag64(v))
	return e
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) *Encoder {
	if e.err != nil {
		return e
	}
	n, ok := e.length(len(s), "string")
	if !ok {
		return e
	}
	e.buf = append(e.buf, byte(StringKind))
	e.Uint32(n)
	e.buf = append(e.buf, s...)
	return e
}

// Bytes writes a length-prefixed byte sequence.
func (e *Encoder) Bytes(b []byte) *Encoder {
	if e.err != nil {
		return e
	}
	n, ok := e.length(len(b), "bytes")
	if !ok {
		return e
	}
	e.buf = append(e.buf, byte(BytesKind))
	e.Uint32(n)
	e.buf = append(e.buf, b...)
	return e
}

// Slice writes an array header: element kind and count. The caller writes
// the size elements that follow.
func (e *Encoder) Slice(size int, elemKind Kind) *Encoder {
	if e.err != nil {
		return e
	}
	n, ok := e.length(size, "slice")
	if !ok {
		return e
	}
	e.buf = append(e.buf, byte(SliceKind), byte(elemKind))
	return e.Uint32(n)
}

// Map writes a map header: key kind, value kind and pair count. The caller
// writes the size key/value pairs that follow.
func (e *Encoder) Map(size int, keyKind, valueKind Kind) *Encoder {
	if e.err != nil {
		return e
	}
	n, ok := e.length(size, "map")
	if !ok {
		return e
	}
	e.buf = append(e.buf, byte(MapKind), byte(keyKind), byte(valueKind))
	return e.Uint32(n)
}
