package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type baseReader struct {
	r     *bufio.Reader
	errCh chan error
}

func (r *baseReader) ErrorOccurred() <-chan error {
	return r.errCh
}

// similar to readLineSlice() in net/textproto/reader.go
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		l, more, err := r.r.ReadLine()
		if err != nil {
			return "", err
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return string(line), nil
}

// readHeaders consumes the header block up to and including the blank line.
// Lines without a ": " separator are skipped and the first of them is
// returned so the caller can reject the request after the block is drained.
func (r *baseReader) readHeaders() (HTTPHeader, string, error) {
	headers := make(HTTPHeader)
	malformed := ""
	for {
		line, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read headers: %w", err)
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			break
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			if malformed == "" {
				malformed = line
			}
			continue
		}
		headers[name] = value
	}
	return headers, malformed, nil
}

// RequestReader reads one HTTP/1.1 request head
type RequestReader struct {
	baseReader
	reqCh chan *Request
}

func NewRequestReader(r io.Reader) *RequestReader {
	var br *bufio.Reader
	if casted, ok := r.(*bufio.Reader); ok {
		br = casted
	} else {
		br = bufio.NewReader(r)
	}
	// Buffered so the reading goroutine can always deliver and exit, even
	// when nobody is listening anymore.
	return &RequestReader{
		baseReader{br, make(chan error, 1)},
		make(chan *Request, 1),
	}
}

func (r *RequestReader) Start() {
	go func() {
		req, err := r.ReadRequest()
		if err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- req
	}()
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}

// ReadRequest reads a request line and its headers. It returns
// ErrEndOfStream when the client has nothing more to send, a *ParseError
// for requests that cannot be understood, and any other error for transport
// failures.
func (r *RequestReader) ReadRequest() (*Request, error) {
	rl, err := r.readLine()
	if err == io.EOF {
		return nil, ErrEndOfStream
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request line: %w", err)
	}
	rl = strings.TrimSpace(rl)
	if len(rl) == 0 {
		return nil, ErrEndOfStream
	}

	headers, malformed, err := r.readHeaders()
	if err != nil {
		return nil, err
	}

	fields := strings.Split(rl, " ")
	if len(fields) != 3 {
		perr := &ParseError{Err: ErrMalformedRequestLine, Line: rl, Headers: headers}
		if len(fields) > 1 {
			perr.Path = fields[1]
		}
		return nil, perr
	}
	req := &Request{
		Method:  fields[0],
		Path:    fields[1],
		Version: fields[2],
		Headers: headers,
	}
	if req.Path == "/" {
		req.Path = "/index.html"
	}
	if malformed != "" {
		return nil, &ParseError{
			Err:     ErrMalformedHeaderLine,
			Line:    malformed,
			Method:  req.Method,
			Path:    req.Path,
			Headers: headers,
		}
	}
	return req, nil
}
