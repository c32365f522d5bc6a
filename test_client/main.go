// test_client sends a series of requests over a single connection and
// prints one line per response. All but the last request ask to keep the
// connection alive.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	addr    = flag.String("addr", "127.0.0.1:8080", "server address")
	head    = flag.Bool("head", false, "send HEAD instead of GET")
	since   = flag.String("if-modified-since", "", "If-Modified-Since value to send")
	timeout = flag.Duration("timeout", 5*time.Second, "per response timeout")
)

func buildRequest(method, path, ims string, last bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)
	fmt.Fprintf(&b, "Host: %s\r\n", *addr)
	if ims != "" {
		fmt.Fprintf(&b, "If-Modified-Since: %s\r\n", ims)
	}
	if last {
		b.WriteString("Connection: close\r\n")
	} else {
		b.WriteString("Connection: keep-alive\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

type result struct {
	Path          string
	Status        string
	ContentLength int64
	BodyLength    int64
	Connection    string
}

func (r result) String() string {
	return fmt.Sprintf("%s %s len=%d body=%d connection=%s",
		r.Path, r.Status, r.ContentLength, r.BodyLength, r.Connection)
}

// connectionOf reports the Connection header as sent. net/http moves a
// "close" value out of the header map into res.Close.
func connectionOf(res *http.Response) string {
	if res.Close {
		return "close"
	}
	return res.Header.Get("Connection")
}

// probe sends the requests one after another on conn, reading each response
// before sending the next one.
func probe(conn net.Conn, method string, paths []string, ims string) ([]result, error) {
	br := bufio.NewReader(conn)
	results := make([]result, 0, len(paths))
	for i, p := range paths {
		last := i == len(paths)-1
		if _, err := io.WriteString(conn, buildRequest(method, p, ims, last)); err != nil {
			return results, err
		}
		if *timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(*timeout))
		}
		res, err := http.ReadResponse(br, &http.Request{Method: method})
		if err != nil {
			return results, fmt.Errorf("reading response for %s: %w", p, err)
		}
		n, err := io.Copy(io.Discard, res.Body)
		res.Body.Close()
		if err != nil {
			return results, err
		}
		results = append(results, result{
			Path:          p,
			Status:        res.Status,
			ContentLength: res.ContentLength,
			BodyLength:    n,
			Connection:    connectionOf(res),
		})
	}
	return results, nil
}

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	method := http.MethodGet
	if *head {
		method = http.MethodHead
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("dial failed")
	}
	defer conn.Close()

	results, err := probe(conn, method, paths, *since)
	for _, r := range results {
		fmt.Println(r)
	}
	if err != nil {
		log.Error().Err(err).Msg("probe failed")
		os.Exit(1)
	}
}
