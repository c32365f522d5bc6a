package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AccessLogger receives one record per response sent.
type AccessLogger interface {
	Record(client string, when time.Time, path, status string)
}

// AccessLog appends JSON lines to a writer shared by all workers.
type AccessLog struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

func NewAccessLog(w io.Writer) *AccessLog {
	return &AccessLog{logger: zerolog.New(w)}
}

// OpenAccessLog appends to the named file, "-" meaning stdout.
func OpenAccessLog(name string) (*AccessLog, error) {
	if name == "-" || name == "" {
		return NewAccessLog(os.Stdout), nil
	}
	fp, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	a := NewAccessLog(fp)
	a.closer = fp
	return a, nil
}

func (a *AccessLog) Record(client string, when time.Time, path, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Log().
		Str("client", client).
		Time("time", when).
		Str("path", path).
		Str("status", status).
		Send()
}

func (a *AccessLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
