package main

import (
	"strconv"
	"strings"
)

const httpVersion = "HTTP/1.1"

// Not map[string][]string, unlike http.Header. Keys keep the case the
// client sent them in.
type HTTPHeader map[string]string

// HeaderField is a single response header. Responses keep their headers in
// the order they were added.
type HeaderField struct {
	Name  string
	Value string
}

type ConnectionMode int

const (
	KeepAlive ConnectionMode = iota
	Close
)

func (m ConnectionMode) String() string {
	if m == Close {
		return "close"
	}
	return "keep-alive"
}

// connectionModeOf derives the connection mode from a header set. Anything
// other than "close" keeps the connection open.
func connectionModeOf(h HTTPHeader) ConnectionMode {
	if v, ok := h["Connection"]; ok && strings.EqualFold(strings.TrimSpace(v), "close") {
		return Close
	}
	return KeepAlive
}

const (
	MethodGet  = "GET"
	MethodHead = "HEAD"
)

type Request struct {
	Method  string
	Path    string
	Version string
	Headers HTTPHeader
}

func (r *Request) Mode() ConnectionMode {
	return connectionModeOf(r.Headers)
}

func (r *Request) IsSupported() bool {
	return r.Method == MethodGet || r.Method == MethodHead
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers []HeaderField
	Body    []byte
}

func (r *Response) AddHeader(name, value string) {
	r.Headers = append(r.Headers, HeaderField{name, value})
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) (string, bool) {
	for _, f := range r.Headers {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// StatusLine is the status as it appears after the version, e.g. "200 OK".
func (r *Response) StatusLine() string {
	return strconv.Itoa(r.Status) + " " + r.Phrase
}

var statusPhrases = map[int]string{
	200: "OK",
	304: "Not Modified",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	501: "Not Implemented",
}

func statusPhrase(code int) string {
	if p, ok := statusPhrases[code]; ok {
		return p
	}
	return "Error"
}
