// Package wire implements the kind-tagged binary encoding used for payloads
// exchanged between a host and its guest modules.
//
// Every value is preceded by a one-byte Kind tag. Variable-width integers use
// unsigned LEB128; signed integers are zigzag-mapped first. Lengths and
// element counts are encoded as tagged uint32 values.
//
//	Value          Encoding
//	──────────────────────────────────────────────────────────
//	nil            NilKind
//	bool           BoolKind, 0x00 | 0x01
//	uint32         Uint32Kind, uleb128
//	uint64         Uint64Kind, uleb128
//	int32          Int32Kind, uleb128(zigzag)
//	int64          Int64Kind, uleb128(zigzag)
//	string         StringKind, uint32(len), utf-8 bytes
//	bytes          BytesKind, uint32(len), raw bytes
//	slice          SliceKind, elemKind, uint32(count), elements...
//	map            MapKind, keyKind, valueKind, uint32(count), pairs...
//	error          ErrorKind, string(message)
//
// The NilKind and ErrorKind tags are sentinels: a composite decoder checks
// Nil first, then Error, and only then reads its fields.
//
// # Safety
//
// The Decoder never reads past the end of its buffer. Truncated input,
// lengths that exceed the remaining bytes, overlong varints and unexpected
// kind tags fail with a structured decode error. Decoded strings and byte
// slices are copies and never alias the input buffer, so the buffer may be
// reused as soon as decoding returns.
//
// Encoder errors are sticky: after the first failure further writes are
// ignored and Finish reports the error.
package wire
