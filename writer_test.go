package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponse(t *testing.T) {
	res := &Response{
		Version: "HTTP/1.1",
		Status:  200,
		Phrase:  "OK",
		Headers: []HeaderField{
			{"Content-Type", "text/plain"},
			{"Content-Length", "6"},
			{"Connection", "keep-alive"},
		},
		Body: []byte("FooBar"),
	}
	expect := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 6\r\n" +
		"Connection: keep-alive\r\n" +
		"\r\n" +
		"FooBar"
	w := new(bytes.Buffer)
	require.NoError(t, WriteResponse(w, res))
	assert.Equal(t, expect, w.String())
}

type countingWriter struct {
	writes int
	bytes.Buffer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func TestWriteResponseSingleWrite(t *testing.T) {
	res := ErrorResponse(404, msgNotFound, MethodGet, KeepAlive, fixedNow())
	w := new(countingWriter)
	require.NoError(t, WriteResponse(w, res))
	assert.Equal(t, 1, w.writes)
}
