package signature

import (
	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/wire"
)

const defaultEncodeSize = 512

// Encode serializes ctx. A nil ctx encodes as the nil sentinel.
func Encode(ctx *Context) ([]byte, error) {
	e := wire.NewEncoderSize(encodeSizeHint(ctx))
	ctx.EncodeTo(e)
	return e.Finish()
}

// EncodeError serializes err as the in-band error sentinel. A nil err
// encodes as the nil sentinel.
func EncodeError(err error) []byte {
	e := wire.NewEncoder()
	if err == nil {
		return e.Nil().Data()
	}
	return e.Error(err).Data()
}

func encodeSizeHint(ctx *Context) int {
	n := defaultEncodeSize
	if ctx == nil {
		return n
	}
	if ctx.Request != nil {
		n += len(ctx.Request.Body)
	}
	if ctx.Response != nil {
		n += len(ctx.Response.Body)
	}
	return n
}

// EncodeTo writes x to e.
func (x *Context) EncodeTo(e *wire.Encoder) {
	if x == nil {
		e.Nil()
		return
	}
	x.Request.EncodeTo(e)
	x.Response.EncodeTo(e)
}

// EncodeTo writes x to e.
func (x *Request) EncodeTo(e *wire.Encoder) {
	if x == nil {
		e.Nil()
		return
	}
	e.String(x.URI).
		String(x.Method).
		Int64(x.ContentLength).
		String(x.Protocol).
		String(x.IP).
		Bytes(x.Body)
	x.Headers.EncodeTo(e)
}

// EncodeTo writes x to e.
func (x *Response) EncodeTo(e *wire.Encoder) {
	if x == nil {
		e.Nil()
		return
	}
	e.Int32(x.StatusCode).Bytes(x.Body)
	x.Headers.EncodeTo(e)
}

// EncodeTo writes x to e.
func (x *StringList) EncodeTo(e *wire.Encoder) {
	if x == nil {
		e.Nil()
		return
	}
	e.Slice(len(x.Value), wire.StringKind)
	for _, v := range x.Value {
		e.String(v)
	}
}

// EncodeTo writes h to e with keys in sorted order.
func (h Headers) EncodeTo(e *wire.Encoder) {
	e.Map(len(h), wire.StringKind, wire.AnyKind)
	for _, k := range h.Keys() {
		e.String(k)
		h[k].EncodeTo(e)
	}
}

// ResultKind identifies the shape of a decoded top-level buffer.
type ResultKind uint8

const (
	ResultNone ResultKind = iota
	ResultError
	ResultValue
)

func (k ResultKind) String() string {
	switch k {
	case ResultNone:
		return "none"
	case ResultError:
		return "error"
	case ResultValue:
		return "value"
	default:
		return "unknown"
	}
}

// Result is a decoded top-level buffer: nothing, an in-band error, or a
// Context.
type Result struct {
	Err     *errors.Reported
	Context *Context
	Kind    ResultKind
}

// DecodeResult decodes a top-level buffer. The sentinels are checked in the
// order nil, error, then record fields. A malformed buffer, including an
// empty one, returns a decode error.
func DecodeResult(b []byte) (Result, error) {
	d := wire.GetDecoder(b)
	defer d.Return()

	if d.Nil() {
		return Result{Kind: ResultNone}, nil
	}
	msg, ok, err := d.Error()
	if err != nil {
		return Result{}, err
	}
	if ok {
		return Result{Kind: ResultError, Err: errors.NewReported(msg)}, nil
	}
	ctx, err := decodeContextFields(d)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultValue, Context: ctx}, nil
}

// DecodeContext decodes a Context. A nil sentinel yields a nil Context; an
// error sentinel yields an *errors.Reported.
func DecodeContext(b []byte) (*Context, error) {
	d := wire.GetDecoder(b)
	defer d.Return()
	return decodeContext(d)
}

// DecodeRequest decodes a Request. Sentinels behave as in DecodeContext.
func DecodeRequest(b []byte) (*Request, error) {
	d := wire.GetDecoder(b)
	defer d.Return()
	return decodeRequest(d)
}

// DecodeResponse decodes a Response. Sentinels behave as in DecodeContext.
func DecodeResponse(b []byte) (*Response, error) {
	d := wire.GetDecoder(b)
	defer d.Return()
	return decodeResponse(d)
}

// DecodeStringList decodes a StringList. Sentinels behave as in
// DecodeContext.
func DecodeStringList(b []byte) (*StringList, error) {
	d := wire.GetDecoder(b)
	defer d.Return()
	return decodeStringList(d)
}

// sentinel consumes a leading nil or error sentinel. done is true when the
// caller must not read record fields.
func sentinel(d *wire.Decoder) (done bool, err error) {
	if d.Nil() {
		return true, nil
	}
	msg, ok, err := d.Error()
	if err != nil {
		return true, err
	}
	if ok {
		return true, errors.NewReported(msg)
	}
	return false, nil
}

func decodeContext(d *wire.Decoder) (*Context, error) {
	if done, err := sentinel(d); done {
		return nil, err
	}
	return decodeContextFields(d)
}

func decodeContextFields(d *wire.Decoder) (*Context, error) {
	req, err := decodeRequest(d)
	if err != nil {
		return nil, errors.WithPath(err, "request")
	}
	resp, err := decodeResponse(d)
	if err != nil {
		return nil, errors.WithPath(err, "response")
	}
	return &Context{Request: req, Response: resp}, nil
}

func decodeRequest(d *wire.Decoder) (*Request, error) {
	if done, err := sentinel(d); done {
		return nil, err
	}

	x := &Request{}
	var err error
	if x.URI, err = d.String(); err != nil {
		return nil, errors.WithPath(err, "uri")
	}
	if x.Method, err = d.String(); err != nil {
		return nil, errors.WithPath(err, "method")
	}
	if x.ContentLength, err = d.Int64(); err != nil {
		return nil, errors.WithPath(err, "content_length")
	}
	if x.Protocol, err = d.String(); err != nil {
		return nil, errors.WithPath(err, "protocol")
	}
	if x.IP, err = d.String(); err != nil {
		return nil, errors.WithPath(err, "ip")
	}
	if x.Body, err = d.Bytes(nil); err != nil {
		return nil, errors.WithPath(err, "body")
	}
	if x.Headers, err = decodeHeaders(d); err != nil {
		return nil, errors.WithPath(err, "headers")
	}
	return x, nil
}

func decodeResponse(d *wire.Decoder) (*Response, error) {
	if done, err := sentinel(d); done {
		return nil, err
	}

	x := &Response{}
	var err error
	if x.StatusCode, err = d.Int32(); err != nil {
		return nil, errors.WithPath(err, "status_code")
	}
	if x.Body, err = d.Bytes(nil); err != nil {
		return nil, errors.WithPath(err, "body")
	}
	if x.Headers, err = decodeHeaders(d); err != nil {
		return nil, errors.WithPath(err, "headers")
	}
	return x, nil
}

// decodeHeaders reads a header map. A nil sentinel in place of the map
// decodes as an empty map.
func decodeHeaders(d *wire.Decoder) (Headers, error) {
	if d.Nil() {
		return Headers{}, nil
	}
	n, err := d.Map(wire.StringKind, wire.AnyKind)
	if err != nil {
		return nil, err
	}
	h := make(Headers, n)
	for i := uint32(0); i < n; i++ {
		k, err := d.String()
		if err != nil {
			return nil, err
		}
		v, err := decodeStringList(d)
		if err != nil {
			return nil, errors.WithPath(err, k)
		}
		h[k] = v
	}
	return h, nil
}

func decodeStringList(d *wire.Decoder) (*StringList, error) {
	if done, err := sentinel(d); done {
		return nil, err
	}
	n, err := d.Slice(wire.StringKind)
	if err != nil {
		return nil, err
	}
	x := &StringList{Value: make([]string, n)}
	for i := range x.Value {
		if x.Value[i], err = d.String(); err != nil {
			return nil, err
		}
	}
	return x, nil
}
