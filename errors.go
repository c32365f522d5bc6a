package main

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream means the client has nothing more to send. It is not a
	// protocol error and gets no response.
	ErrEndOfStream = errors.New("end of stream")

	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrMalformedHeaderLine  = errors.New("malformed header line")
	ErrUnsupportedMethod    = errors.New("unsupported method")
	ErrResourceMissing      = errors.New("resource missing")
	ErrResourceForbidden    = errors.New("resource forbidden")
)

// ParseError is returned by RequestReader when a request could be framed but
// not understood. The reader has already consumed the whole header block, so
// the stream sits at the start of the next request.
type ParseError struct {
	Err     error
	Line    string
	Method  string // empty when the request line itself was malformed
	Path    string
	Headers HTTPHeader
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Mode reports the connection mode from whatever headers were readable.
func (e *ParseError) Mode() ConnectionMode {
	return connectionModeOf(e.Headers)
}
