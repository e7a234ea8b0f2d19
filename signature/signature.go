package signature

// Context is the unit of exchange for one invocation.
type Context struct {
	Request  *Request
	Response *Response
}

// Request is the inbound HTTP request.
type Request struct {
	Headers       Headers
	URI           string
	Method        string
	Protocol      string
	IP            string
	Body          []byte
	ContentLength int64
}

// Response is the outbound HTTP response.
type Response struct {
	Headers    Headers
	Body       []byte
	StatusCode int32
}

// StringList holds the ordered values of one header.
type StringList struct {
	Value []string
}

// NewContext returns a Context with empty, non-nil request, response and
// header maps.
func NewContext() *Context {
	return &Context{
		Request:  NewRequest(),
		Response: NewResponse(),
	}
}

// NewRequest returns an empty Request.
func NewRequest() *Request {
	return &Request{Headers: Headers{}}
}

// NewResponse returns an empty Response.
func NewResponse() *Response {
	return &Response{Headers: Headers{}}
}

// Clone returns a deep copy of x.
func (x *Context) Clone() *Context {
	if x == nil {
		return nil
	}
	return &Context{
		Request:  x.Request.Clone(),
		Response: x.Response.Clone(),
	}
}

// Clone returns a deep copy of x.
func (x *Request) Clone() *Request {
	if x == nil {
		return nil
	}
	cp := *x
	cp.Headers = x.Headers.Clone()
	cp.Body = cloneBytes(x.Body)
	return &cp
}

// Clone returns a deep copy of x.
func (x *Response) Clone() *Response {
	if x == nil {
		return nil
	}
	cp := *x
	cp.Headers = x.Headers.Clone()
	cp.Body = cloneBytes(x.Body)
	return &cp
}

// Clone returns a deep copy of x.
func (x *StringList) Clone() *StringList {
	if x == nil {
		return nil
	}
	if x.Value == nil {
		return &StringList{}
	}
	return &StringList{Value: append([]string(nil), x.Value...)}
}

// SetBody replaces the body and sets ContentLength to its length.
func (x *Request) SetBody(body []byte) {
	x.Body = body
	x.ContentLength = int64(len(body))
}

// SetBodyString is SetBody for a string body.
func (x *Request) SetBodyString(body string) {
	x.SetBody([]byte(body))
}

// Header returns the request headers, allocating the map if needed.
func (x *Request) Header() Headers {
	if x.Headers == nil {
		x.Headers = Headers{}
	}
	return x.Headers
}

// SetBody replaces the response body.
func (x *Response) SetBody(body []byte) {
	x.Body = body
}

// SetBodyString is SetBody for a string body.
func (x *Response) SetBodyString(body string) {
	x.Body = []byte(body)
}

// Header returns the response headers, allocating the map if needed.
func (x *Response) Header() Headers {
	if x.Headers == nil {
		x.Headers = Headers{}
	}
	return x.Headers
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
