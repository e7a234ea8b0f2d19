// Package signature defines the HTTP context records exchanged between a host
// and its wasm guests, and their positional wire layout.
//
// # Records
//
//	Context   request, response
//	Request   uri, method, content_length, protocol, ip, body, headers
//	Response  status_code, body, headers
//	StringList value
//
// Fields are written in exactly the order listed, without names. Headers
// are a map from string to StringList (kinds string and any). A nil header
// map is written as an empty map. A nil record pointer is written as the nil
// sentinel and decodes back to a nil pointer.
//
// # Results
//
// A top-level buffer holds one of three shapes: nil, an error message, or a
// Context. DecodeResult inspects the sentinels once, in that order, and
// returns a Result; callers switch on Result.Kind instead of probing the
// bytes again.
//
//	res, err := signature.DecodeResult(buf)
//	if err != nil {
//		// malformed input
//	}
//	switch res.Kind {
//	case signature.ResultError:
//		// res.Err carries the guest message verbatim
//	case signature.ResultValue:
//		// res.Context is the decoded record
//	}
//
// Decoded strings and byte slices never alias the input buffer.
package signature
