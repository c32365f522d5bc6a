package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Server accepts connections and hands each one to its own Worker.
type Server struct {
	cfg       *Config
	resolver  Resolver
	accessLog AccessLogger

	listener  net.Listener
	serveDone chan struct{}
	wg        sync.WaitGroup
	workers   sync.Map // int64 -> *Worker
	workerID  int64
}

func NewServer(cfg *Config, resolver Resolver, accessLog AccessLogger) *Server {
	return &Server{cfg: cfg, resolver: resolver, accessLog: accessLog}
}

// Start listens and accepts connections in the background until ctx is done
// or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	s.listener = ln
	s.serveDone = make(chan struct{})
	log.Info().Str("addr", ln.Addr().String()).Str("root", s.cfg.Root).Msg("listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go s.serve(ctx, ln)
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serve(ctx context.Context, ln net.Listener) {
	defer close(s.serveDone)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error().Err(err).Msg("accept error")
			continue
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()

	id := atomic.AddInt64(&s.workerID, 1)
	worker := NewWorker(s.resolver, s.accessLog, s.cfg.WorkerOptions())
	s.workers.Store(id, worker)
	defer s.workers.Delete(id)

	worker.Start(conn) // worker takes the ownership of |conn|
}

// Stop closes the listener and waits for open connections to finish. Workers
// still running after the grace period are cancelled.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
		// No wg.Add may race with the Wait below.
		<-s.serveDone
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(s.cfg.GracePeriod):
	}

	log.Warn().Msg("grace period exceeded, closing remaining connections")
	s.workers.Range(func(_, value interface{}) bool {
		value.(*Worker).Cancel()
		return true
	})
	<-done
	log.Info().Msg("shutdown complete")
}
