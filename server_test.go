package main

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cfg *Config) (*Server, *recordingLog) {
	t.Helper()
	accessLog := new(recordingLog)
	srv := NewServer(cfg, NewFileResolver(cfg.Root), accessLog)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() {
		cancel()
		srv.Stop()
	})
	return srv, accessLog
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.Root = t.TempDir()
	cfg.GracePeriod = 100 * time.Millisecond
	return cfg
}

func TestServerPersistentConnection(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "index.html", []byte("<h1>home</h1>"), time.Now())
	srv, accessLog := startServer(t, cfg)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	br := bufio.NewReader(conn)

	_, err = io.WriteString(conn, "GET / HTTP/1.1\r\nHost: test\r\n\r\n")
	require.NoError(t, err)
	res, err := http.ReadResponse(br, nil)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "<h1>home</h1>", string(body))

	_, err = io.WriteString(conn, "GET /nope HTTP/1.1\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)
	res, err = http.ReadResponse(br, nil)
	require.NoError(t, err)
	io.Copy(io.Discard, res.Body)
	assert.Equal(t, 404, res.StatusCode)
	assert.True(t, res.Close)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)

	accessLog.mu.Lock()
	defer accessLog.mu.Unlock()
	require.Len(t, accessLog.entries, 2)
	assert.Equal(t, "127.0.0.1", accessLog.entries[0].client)
	assert.Equal(t, "/index.html", accessLog.entries[0].path)
	assert.Equal(t, "404 Not Found", accessLog.entries[1].status)
}

func TestServerConcurrentConnections(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "a.txt", []byte("a"), time.Now())
	srv, _ := startServer(t, cfg)

	const clients = 8
	errs := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func() {
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			if _, err := io.WriteString(conn, "GET /a.txt HTTP/1.1\r\nConnection: close\r\n\r\n"); err != nil {
				errs <- err
				return
			}
			res, err := http.ReadResponse(bufio.NewReader(conn), nil)
			if err == nil {
				res.Body.Close()
			}
			errs <- err
		}()
	}
	for i := 0; i < clients; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestServerStopCancelsIdleConnections(t *testing.T) {
	cfg := testConfig(t)
	accessLog := new(recordingLog)
	srv := NewServer(cfg, NewFileResolver(cfg.Root), accessLog)
	require.NoError(t, srv.Start(context.Background()))

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// make sure the connection has been handed to a worker
	_, err = io.WriteString(conn, "GET /x HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	br := bufio.NewReader(conn)
	res, err := http.ReadResponse(br, nil)
	require.NoError(t, err)
	io.Copy(io.Discard, res.Body)

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestServerStopWhileAccepting(t *testing.T) {
	cfg := testConfig(t)
	srv := NewServer(cfg, NewFileResolver(cfg.Root), new(recordingLog))
	require.NoError(t, srv.Start(context.Background()))
	addr := srv.Addr().String()

	const dialers = 4
	dialed := make(chan struct{}, dialers)
	for i := 0; i < dialers; i++ {
		go func() {
			defer func() { dialed <- struct{}{} }()
			for j := 0; j < 20; j++ {
				conn, err := net.Dial("tcp", addr)
				if err != nil {
					return
				}
				io.WriteString(conn, "GET /x HTTP/1.1\r\nConnection: close\r\n\r\n")
				conn.Close()
			}
		}()
	}

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
	for i := 0; i < dialers; i++ {
		<-dialed
	}

	select {
	case <-srv.serveDone:
	default:
		t.Fatal("accept loop still running after Stop")
	}
}

func TestServerListenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Host = "256.0.0.1"
	srv := NewServer(cfg, NewFileResolver(cfg.Root), new(recordingLog))
	assert.Error(t, srv.Start(context.Background()))
	assert.Nil(t, srv.Addr())
}
