package main

import (
	"bufio"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type WorkerOptions struct {
	// ReadTimeout bounds the wait for each request head. Zero waits forever.
	ReadTimeout time.Duration
	// HTTP10 closes every connection after one response and ignores
	// If-Modified-Since.
	HTTP10 bool
}

// Worker serves the requests of one client connection, one at a time.
type Worker struct {
	clientConn   net.Conn
	clientReader *bufio.Reader
	resolver     Resolver
	accessLog    AccessLogger
	opts         WorkerOptions
	now          func() time.Time
	log          zerolog.Logger

	res    *Response
	path   string
	mode   ConnectionMode
	served int

	done       chan struct{}
	cancelOnce sync.Once
	closeOnce  sync.Once
}

type stateFunc func(*Worker) stateFunc

func NewWorker(resolver Resolver, accessLog AccessLogger, opts WorkerOptions) *Worker {
	return &Worker{
		resolver:  resolver,
		accessLog: accessLog,
		opts:      opts,
		now:       time.Now,
		log:       log.Logger,
		done:      make(chan struct{}),
	}
}

func (w *Worker) Start(conn net.Conn) {
	w.clientConn = conn
	w.clientReader = bufio.NewReader(conn)
	w.log = log.With().Str("client", w.clientAddr()).Logger()

	// Unblocks a pending read or write once the worker is cancelled.
	go func() {
		<-w.done
		conn.SetDeadline(time.Unix(1, 0))
	}()

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

// Cancel stops the worker and interrupts any I/O it is blocked on. Safe to
// call more than once.
func (w *Worker) Cancel() {
	w.cancelOnce.Do(func() {
		close(w.done)
	})
}

func (w *Worker) clientAddr() string {
	addr := w.clientConn.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (w *Worker) negotiate(mode ConnectionMode) ConnectionMode {
	if w.opts.HTTP10 {
		return Close
	}
	return mode
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.path = req.Path
	w.mode = w.negotiate(req.Mode())
	w.log.Debug().Str("method", req.Method).Str("path", req.Path).
		Stringer("mode", w.mode).Msg("request received")

	if !req.IsSupported() {
		w.log.Warn().Err(ErrUnsupportedMethod).Str("method", req.Method).Msg("rejected")
		w.res = ErrorResponse(501, msgNotImplemented, req.Method, w.mode, w.now())
		return sendResponse
	}
	w.res = w.serveResource(req)
	return sendResponse
}

func (w *Worker) serveResource(req *Request) *Response {
	res := w.resolver.Resolve(req.Path)
	switch res.Status {
	case ResourceMissing:
		return ErrorResponse(404, msgNotFound, req.Method, w.mode, w.now())
	case ResourceForbidden:
		return ErrorResponse(403, msgForbidden, req.Method, w.mode, w.now())
	}

	if !w.opts.HTTP10 {
		ims, ok := req.Headers["If-Modified-Since"]
		if EvaluateConditional(res.ModTime, ims, ok) == NotModified {
			return NotModifiedResponse(res.ModTime, w.mode, w.now())
		}
	}

	content, err := w.resolver.Load(res)
	if err != nil {
		w.log.Warn().Err(err).Str("path", req.Path).Msg("read failed")
		return ErrorResponse(403, msgForbidden, req.Method, w.mode, w.now())
	}
	return ContentResponse(res, content, req.Method, w.mode, w.now())
}

func (w *Worker) readFailed(err error) stateFunc {
	var perr *ParseError
	switch {
	case errors.Is(err, ErrEndOfStream):
		return finishWorker
	case errors.As(err, &perr):
		w.log.Warn().Err(err).Msg("bad request")
		w.path = perr.Path
		w.mode = w.negotiate(perr.Mode())
		w.res = parseErrorResponse(perr, w.mode, w.now())
		return sendResponse
	case errors.Is(err, os.ErrDeadlineExceeded):
		w.log.Debug().Msg("idle timeout")
		return finishWorker
	default:
		w.log.Error().Err(err).Msg("read failed")
		return finishWorker
	}
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	select {
	case <-w.done:
		return finishWorker
	default:
	}

	if w.opts.ReadTimeout > 0 {
		w.clientConn.SetReadDeadline(time.Now().Add(w.opts.ReadTimeout))
	}
	r := NewRequestReader(w.clientReader)
	r.Start()
	select {
	case req := <-r.RequestReceived():
		return w.requestReceived(req)
	case err := <-r.ErrorOccurred():
		return w.readFailed(err)
	case <-w.done:
		w.log.Debug().Msg("waitForRequest cancelled")
		return finishWorker
	}
}

func sendResponse(w *Worker) stateFunc {
	if err := WriteResponse(w.clientConn, w.res); err != nil {
		w.log.Error().Err(err).Msg("write failed")
		return finishWorker
	}
	w.served++
	w.accessLog.Record(w.clientAddr(), w.now(), w.path, w.res.StatusLine())

	if w.mode == Close {
		return finishWorker
	}
	return waitForRequest
}

func finishWorker(w *Worker) stateFunc {
	w.closeOnce.Do(func() {
		if w.clientConn != nil {
			w.clientConn.Close()
		}
	})
	w.Cancel()
	w.log.Debug().Int("served", w.served).Msg("worker finished")
	return nil
}
