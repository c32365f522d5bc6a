package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	msgBadRequestLine = "Invalid request line"
	msgBadHeaderLine  = "Invalid header line"
	msgNotFound       = "File not found"
	msgForbidden      = "Permission denied"
	msgNotImplemented = "Method not supported"
)

func newResponse(status int) *Response {
	return &Response{
		Version: httpVersion,
		Status:  status,
		Phrase:  statusPhrase(status),
	}
}

func errorBody(status int, message string) []byte {
	return []byte(fmt.Sprintf("<html><body><h1>%d %s</h1><p>%s</p></body></html>",
		status, statusPhrase(status), message))
}

// ErrorResponse builds a 4xx/5xx response with an HTML body. HEAD responses
// report the length of the body they would have carried.
func ErrorResponse(status int, message, method string, mode ConnectionMode, now time.Time) *Response {
	body := errorBody(status, message)
	res := newResponse(status)
	res.AddHeader("Content-Type", "text/html")
	res.AddHeader("Content-Length", strconv.Itoa(len(body)))
	res.AddHeader("Date", formatHTTPDate(now))
	res.AddHeader("Connection", mode.String())
	if method != MethodHead {
		res.Body = body
	}
	return res
}

func NotModifiedResponse(modTime time.Time, mode ConnectionMode, now time.Time) *Response {
	res := newResponse(304)
	res.AddHeader("Date", formatHTTPDate(now))
	res.AddHeader("Last-Modified", formatHTTPDate(modTime))
	res.AddHeader("Connection", mode.String())
	return res
}

// ContentResponse builds a 200 response. Content-Length is only sent along
// with a body.
func ContentResponse(res *Resource, content []byte, method string, mode ConnectionMode, now time.Time) *Response {
	r := newResponse(200)
	r.AddHeader("Content-Type", res.ContentType)
	if method != MethodHead {
		r.AddHeader("Content-Length", strconv.Itoa(len(content)))
	}
	r.AddHeader("Last-Modified", formatHTTPDate(res.ModTime))
	r.AddHeader("Date", formatHTTPDate(now))
	r.AddHeader("Connection", mode.String())
	if method != MethodHead {
		r.Body = content
	}
	return r
}

// parseErrorResponse answers a request the reader could not understand.
func parseErrorResponse(perr *ParseError, mode ConnectionMode, now time.Time) *Response {
	msg := msgBadRequestLine
	if errors.Is(perr, ErrMalformedHeaderLine) {
		msg = msgBadHeaderLine
	}
	return ErrorResponse(400, msg, perr.Method, mode, now)
}
