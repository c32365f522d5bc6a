package main

import (
	"bytes"
	"fmt"
	"io"
)

// WriteResponse serializes res and hands it to w in a single Write.
func WriteResponse(w io.Writer, res *Response) error {
	buf := bytes.NewBuffer(make([]byte, 0, 256+len(res.Body)))
	fmt.Fprintf(buf, "%s %d %s\r\n", res.Version, res.Status, res.Phrase)
	for _, f := range res.Headers {
		fmt.Fprintf(buf, "%s: %s\r\n", f.Name, f.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(res.Body)
	n, err := w.Write(buf.Bytes())
	if err == nil && n != buf.Len() {
		err = io.ErrShortWrite
	}
	return err
}
