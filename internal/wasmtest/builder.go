// Package wasmtest assembles small core WebAssembly modules byte by byte so
// host tests can run guests without a wasm toolchain.
package wasmtest

import "bytes"

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

// Section ids.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11
)

// Export kinds.
const (
	externFunc   = 0x00
	externMemory = 0x02
)

// Opcodes used by the fixtures.
const (
	OpUnreachable   = 0x00
	OpLoop          = 0x03
	OpEnd           = 0x0b
	OpBr            = 0x0c
	OpCall          = 0x10
	OpDrop          = 0x1a
	OpLocalGet      = 0x20
	OpGlobalGet     = 0x23
	OpGlobalSet     = 0x24
	OpI32Const      = 0x41
	OpI64Const      = 0x42
	OpI64Or         = 0x84
	OpI64Shl        = 0x86
	OpI64ExtendI32U = 0xad
	BlockEmpty      = 0x40
)

type funcType struct {
	params  []ValType
	results []ValType
}

type importFunc struct {
	module, name string
	typeIdx      uint32
}

type function struct {
	export  string
	typeIdx uint32
	body    []byte
}

type segment struct {
	data   []byte
	offset int32
}

// Builder collects the parts of a module. Imports must be added before any
// function so that function indices stay stable.
type Builder struct {
	types       []funcType
	imports     []importFunc
	funcs       []function
	globals     []int32
	data        []segment
	memoryPages uint32
	hasMemory   bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) typeIndex(params, results []ValType) uint32 {
	for i, t := range b.types {
		if bytes.Equal(valBytes(t.params), valBytes(params)) && bytes.Equal(valBytes(t.results), valBytes(results)) {
			return uint32(i)
		}
	}
	b.types = append(b.types, funcType{params: params, results: results})
	return uint32(len(b.types) - 1)
}

// ImportFunc adds a function import and returns its function index.
func (b *Builder) ImportFunc(module, name string, params, results []ValType) uint32 {
	if len(b.funcs) > 0 {
		panic("wasmtest: imports must precede functions")
	}
	b.imports = append(b.imports, importFunc{module: module, name: name, typeIdx: b.typeIndex(params, results)})
	return uint32(len(b.imports) - 1)
}

// Func adds a function exported as name (unexported when name is empty).
// body is the instruction sequence without the trailing end opcode and
// without locals. It returns the function index.
func (b *Builder) Func(name string, params, results []ValType, body ...byte) uint32 {
	b.funcs = append(b.funcs, function{export: name, typeIdx: b.typeIndex(params, results), body: body})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Memory adds a memory of pages 64KiB pages exported as "memory".
func (b *Builder) Memory(pages uint32) {
	b.memoryPages = pages
	b.hasMemory = true
}

// GlobalI32 adds a mutable i32 global and returns its index.
func (b *Builder) GlobalI32(init int32) uint32 {
	b.globals = append(b.globals, init)
	return uint32(len(b.globals) - 1)
}

// Data adds an active data segment at offset in memory 0.
func (b *Builder) Data(offset int32, data []byte) {
	b.data = append(b.data, segment{offset: offset, data: data})
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	if len(b.types) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.types)))
		for _, t := range b.types {
			w.byte(0x60)
			w.vals(t.params)
			w.vals(t.results)
		}
		section(&out, secType, w)
	}

	if len(b.imports) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.imports)))
		for _, im := range b.imports {
			w.name(im.module)
			w.name(im.name)
			w.byte(externFunc)
			w.u32(im.typeIdx)
		}
		section(&out, secImport, w)
	}

	if len(b.funcs) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			w.u32(f.typeIdx)
		}
		section(&out, secFunction, w)
	}

	if b.hasMemory {
		w := &writer{}
		w.u32(1)
		w.byte(0x00)
		w.u32(b.memoryPages)
		section(&out, secMemory, w)
	}

	if len(b.globals) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.globals)))
		for _, g := range b.globals {
			w.byte(byte(I32))
			w.byte(0x01)
			w.byte(OpI32Const)
			w.s64(int64(g))
			w.byte(OpEnd)
		}
		section(&out, secGlobal, w)
	}

	exports := &writer{}
	var n uint32
	if b.hasMemory {
		exports.name("memory")
		exports.byte(externMemory)
		exports.u32(0)
		n++
	}
	for i, f := range b.funcs {
		if f.export == "" {
			continue
		}
		exports.name(f.export)
		exports.byte(externFunc)
		exports.u32(uint32(len(b.imports) + i))
		n++
	}
	if n > 0 {
		w := &writer{}
		w.u32(n)
		w.raw(exports.buf.Bytes())
		section(&out, secExport, w)
	}

	if len(b.funcs) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			body := &writer{}
			body.u32(0)
			body.raw(f.body)
			body.byte(OpEnd)
			w.u32(uint32(body.buf.Len()))
			w.raw(body.buf.Bytes())
		}
		section(&out, secCode, w)
	}

	if len(b.data) > 0 {
		w := &writer{}
		w.u32(uint32(len(b.data)))
		for _, d := range b.data {
			w.u32(0)
			w.byte(OpI32Const)
			w.s64(int64(d.offset))
			w.byte(OpEnd)
			w.u32(uint32(len(d.data)))
			w.raw(d.data)
		}
		section(&out, secData, w)
	}

	return out.Bytes()
}

func section(out *bytes.Buffer, id byte, w *writer) {
	out.WriteByte(id)
	size := &writer{}
	size.u32(uint32(w.buf.Len()))
	out.Write(size.buf.Bytes())
	out.Write(w.buf.Bytes())
}

func valBytes(vs []ValType) []byte {
	b := make([]byte, len(vs))
	for i, v := range vs {
		b[i] = byte(v)
	}
	return b
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *writer) raw(b []byte) {
	w.buf.Write(b)
}

func (w *writer) u32(v uint32) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		w.buf.WriteByte(c)
		if v == 0 {
			return
		}
	}
}

func (w *writer) s64(v int64) {
	w.buf.Write(SLEB(v))
}

func (w *writer) name(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) vals(vs []ValType) {
	w.u32(uint32(len(vs)))
	w.raw(valBytes(vs))
}

// SLEB encodes v as signed LEB128, the immediate form of i32.const and
// i64.const.
func SLEB(v int64) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}
