package wire

import (
	"github.com/wippyai/wasm-http/errors"
)

// Decoder reads kind-tagged values from a byte slice through a
// bounds-checked cursor. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a Decoder positioned at the start of b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Offset returns the current cursor position.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) outOfBounds(need int) error {
	return errors.OutOfBounds(errors.PhaseDecode, nil, d.off+need, len(d.buf))
}

func (d *Decoder) peek() (Kind, bool) {
	if d.off >= len(d.buf) {
		return 0, false
	}
	return Kind(d.buf[d.off]), true
}

// expect consumes the kind tag k or fails without advancing.
func (d *Decoder) expect(k Kind) error {
	got, ok := d.peek()
	if !ok {
		return d.outOfBounds(1)
	}
	if got != k {
		return errors.TypeMismatch(errors.PhaseDecode, nil, k.String(), got.String())
	}
	d.off++
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, d.outOfBounds(n)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

// Nil consumes the nil sentinel if it is next and reports whether it did.
func (d *Decoder) Nil() bool {
	if k, ok := d.peek(); ok && k == NilKind {
		d.off++
		return true
	}
	return false
}

// Error consumes the error sentinel if it is next. It returns the carried
// message and true when the sentinel was present; err is set only when the
// sentinel was present but its message was malformed.
func (d *Decoder) Error() (msg string, present bool, err error) {
	if k, ok := d.peek(); !ok || k != ErrorKind {
		return "", false, nil
	}
	start := d.off
	d.off++
	msg, err = d.String()
	if err != nil {
		d.off = start
		return "", true, errors.WithPath(err, "error")
	}
	return msg, true, nil
}

// Bool reads a boolean.
func (d *Decoder) Bool() (bool, error) {
	if err := d.expect(BoolKind); err != nil {
		return false, err
	}
	b, err := d.take(1)
	if err != nil {
		d.off--
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("invalid bool byte %#02x", b[0]).
			Build()
	}
}

// Uint32 reads an unsigned 32-bit integer.
func (d *Decoder) Uint32() (uint32, error) {
	start := d.off
	if err := d.expect(Uint32Kind); err != nil {
		return 0, err
	}
	v, n, err := readUvarint32(d.buf[d.off:])
	if err != nil {
		d.off = start
		return 0, err
	}
	d.off += n
	return v, nil
}

// Uint64 reads an unsigned 64-bit integer.
func (d *Decoder) Uint64() (uint64, error) {
	start := d.off
	if err := d.expect(Uint64Kind); err != nil {
		return 0, err
	}
	v, n, err := readUvarint64(d.buf[d.off:], MaxVarintLen64)
	if err != nil {
		d.off = start
		return 0, err
	}
	d.off += n
	return v, nil
}

// Int32 reads a signed 32-bit integer.
func (d *Decoder) Int32() (int32, error) {
	start := d.off
	if err := d.expect(Int32Kind); err != nil {
		return 0, err
	}
	v, n, err := readUvarint32(d.buf[d.off:])
	if err != nil {
		d.off = start
		return 0, err
	}
	d.off += n
	return unzigzag32(v), nil
}

// Int64 reads a signed 64-bit integer.
func (d *Decoder) Int64() (int64, error) {
	start := d.off
	if err := d.expect(Int64Kind); err != nil {
		return 0, err
	}
	v, n, err := readUvarint64(d.buf[d.off:], MaxVarintLen64)
	if err != nil {
		d.off = start
		return 0, err
	}
	d.off += n
	return unzigzag64(v), nil
}

// lengthPrefixed reads kind k followed by a uint32 length and that many
// bytes. The returned slice aliases the decoder buffer.
func (d *Decoder) lengthPrefixed(k Kind) ([]byte, error) {
	start := d.off
	if err := d.expect(k); err != nil {
		return nil, err
	}
	n, err := d.Uint32()
	if err != nil {
		d.off = start
		return nil, err
	}
	b, err := d.take(int(n))
	if err != nil {
		d.off = start
		return nil, err
	}
	return b, nil
}

// String reads a length-prefixed string. The result is a copy.
func (d *Decoder) String() (string, error) {
	b, err := d.lengthPrefixed(StringKind)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes reads a length-prefixed byte sequence and appends it to dst[:0],
// so the result never aliases the decoder buffer.
func (d *Decoder) Bytes(dst []byte) ([]byte, error) {
	b, err := d.lengthPrefixed(BytesKind)
	if err != nil {
		return nil, err
	}
	return append(dst[:0], b...), nil
}

// Slice reads an array header for elements of elemKind and returns the
// element count. Every element occupies at least one byte, so counts larger
// than the remaining input are rejected before the caller allocates.
func (d *Decoder) Slice(elemKind Kind) (uint32, error) {
	start := d.off
	if err := d.expect(SliceKind); err != nil {
		return 0, err
	}
	if err := d.expect(elemKind); err != nil {
		d.off = start
		return 0, err
	}
	n, err := d.Uint32()
	if err != nil {
		d.off = start
		return 0, err
	}
	if int64(n) > int64(d.Remaining()) {
		d.off = start
		return 0, d.outOfBounds(d.Remaining() + 1)
	}
	return n, nil
}

// Map reads a map header for the given key and value kinds and returns the
// pair count. Like Slice, counts larger than the remaining input fail.
func (d *Decoder) Map(keyKind, valueKind Kind) (uint32, error) {
	start := d.off
	if err := d.expect(MapKind); err != nil {
		return 0, err
	}
	if err := d.expect(keyKind); err != nil {
		d.off = start
		return 0, err
	}
	if err := d.expect(valueKind); err != nil {
		d.off = start
		return 0, err
	}
	n, err := d.Uint32()
	if err != nil {
		d.off = start
		return 0, err
	}
	if int64(n)*2 > int64(d.Remaining()) {
		d.off = start
		return 0, d.outOfBounds(d.Remaining() + 1)
	}
	return n, nil
}
