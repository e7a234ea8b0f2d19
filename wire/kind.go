package wire

import "fmt"

// Kind is the one-byte tag preceding every encoded value
type Kind byte

const (
	NilKind     Kind = 0x00
	SliceKind   Kind = 0x01
	MapKind     Kind = 0x02
	AnyKind     Kind = 0x03
	BytesKind   Kind = 0x04
	StringKind  Kind = 0x05
	ErrorKind   Kind = 0x06
	BoolKind    Kind = 0x07
	Uint8Kind   Kind = 0x08
	Uint16Kind  Kind = 0x09
	Uint32Kind  Kind = 0x0a
	Uint64Kind  Kind = 0x0b
	Int32Kind   Kind = 0x0c
	Int64Kind   Kind = 0x0d
	Float32Kind Kind = 0x0e
	Float64Kind Kind = 0x0f
)

var kindNames = [...]string{
	NilKind:     "nil",
	SliceKind:   "slice",
	MapKind:     "map",
	AnyKind:     "any",
	BytesKind:   "bytes",
	StringKind:  "string",
	ErrorKind:   "error",
	BoolKind:    "bool",
	Uint8Kind:   "u8",
	Uint16Kind:  "u16",
	Uint32Kind:  "u32",
	Uint64Kind:  "u64",
	Int32Kind:   "i32",
	Int64Kind:   "i64",
	Float32Kind: "f32",
	Float64Kind: "f64",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%#02x)", byte(k))
}

// Valid reports whether k is a known kind tag
func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}
