package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-http/signature"
)

// requestFile is the YAML form of a request.
//
//	method: POST
//	uri: /users
//	headers:
//	  Content-Type: [application/json]
//	body: '{"name": "x"}'
type requestFile struct {
	Headers  map[string][]string `yaml:"headers"`
	Method   string              `yaml:"method"`
	URI      string              `yaml:"uri"`
	Protocol string              `yaml:"protocol"`
	RemoteIP string              `yaml:"remote_ip"`
	Body     *string             `yaml:"body"`
}

// requestFlags holds the request flags. Empty fields leave the file value
// in place.
type requestFlags struct {
	method   string
	uri      string
	protocol string
	remoteIP string
	body     *string
	headers  headerFlags
}

// headerFlags collects repeated -H "Name: value" flags.
type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(v string) error {
	if _, _, err := parseHeader(v); err != nil {
		return err
	}
	*h = append(*h, v)
	return nil
}

// optionalString is a flag.Value that remembers whether it was set.
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(v string) error {
	o.value = &v
	return nil
}

func parseHeader(line string) (string, string, error) {
	name, value, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q, want \"Name: value\"", line)
	}
	return name, strings.TrimSpace(value), nil
}

func loadRequestFile(path string) (*requestFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()
	return decodeRequestFile(f)
}

func decodeRequestFile(r io.Reader) (*requestFile, error) {
	var rf requestFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &rf, nil
}

// buildContext assembles the Context sent to the chain. Flag values
// override file values; -H headers are appended after file headers.
func buildContext(file *requestFile, flags requestFlags) (*signature.Context, error) {
	ctx := signature.NewContext()
	req := ctx.Request
	req.Method = "GET"
	req.URI = "/"
	req.Protocol = "HTTP/1.1"
	req.IP = "127.0.0.1"

	if file != nil {
		setIf(&req.Method, file.Method)
		setIf(&req.URI, file.URI)
		setIf(&req.Protocol, file.Protocol)
		setIf(&req.IP, file.RemoteIP)
		for name, values := range file.Headers {
			req.Headers.Set(name, values...)
		}
		if file.Body != nil {
			req.SetBodyString(*file.Body)
		}
	}

	setIf(&req.Method, flags.method)
	setIf(&req.URI, flags.uri)
	setIf(&req.Protocol, flags.protocol)
	setIf(&req.IP, flags.remoteIP)
	for _, line := range flags.headers {
		name, value, err := parseHeader(line)
		if err != nil {
			return nil, err
		}
		req.Headers.Add(name, value)
	}
	if flags.body != nil {
		req.SetBodyString(*flags.body)
	}
	return ctx, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// writeResponse prints the status line, headers sorted by name with one
// line per value, a blank line and the body.
func writeResponse(w io.Writer, resp *signature.Response) error {
	if resp == nil {
		_, err := fmt.Fprintln(w, "(no response)")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d\n", resp.StatusCode)
	for _, name := range resp.Headers.Keys() {
		for _, v := range resp.Headers.Get(name) {
			fmt.Fprintf(&b, "%s: %s\n", name, v)
		}
	}
	b.WriteByte('\n')
	b.Write(resp.Body)
	if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
