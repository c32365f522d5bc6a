package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"
)

const defaultContentType = "application/octet-stream"

type ResourceStatus int

const (
	ResourceMissing ResourceStatus = iota
	ResourceForbidden
	ResourceAvailable
)

func (s ResourceStatus) Err() error {
	switch s {
	case ResourceMissing:
		return ErrResourceMissing
	case ResourceForbidden:
		return ErrResourceForbidden
	}
	return nil
}

type Resource struct {
	Status      ResourceStatus
	Path        string // local file path
	ModTime     time.Time
	Size        int64
	ContentType string
}

// Resolver maps request paths to resources. Can be mocked.
type Resolver interface {
	Resolve(path string) *Resource
	Load(res *Resource) ([]byte, error)
}

// FileResolver serves files below Root. The request path is appended to Root
// as is.
type FileResolver struct {
	Root string
}

func NewFileResolver(root string) *FileResolver {
	return &FileResolver{Root: root}
}

func (f *FileResolver) Resolve(path string) *Resource {
	local := f.Root + path
	res := &Resource{Path: local}

	fi, err := os.Stat(local)
	if err != nil {
		res.Status = ResourceMissing
		return res
	}
	// Only regular files are served; opening a FIFO or device could block.
	if !fi.Mode().IsRegular() || !readable(local) {
		res.Status = ResourceForbidden
		return res
	}

	res.Status = ResourceAvailable
	res.ModTime = fi.ModTime().UTC().Truncate(time.Second)
	res.Size = fi.Size()
	res.ContentType = contentTypeOf(local)
	return res
}

func (f *FileResolver) Load(res *Resource) ([]byte, error) {
	if res.Status != ResourceAvailable {
		return nil, res.Status.Err()
	}
	b, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceForbidden, err)
	}
	return b, nil
}

func readable(path string) bool {
	fp, err := os.Open(path)
	if err != nil {
		return false
	}
	fp.Close()
	return true
}

func contentTypeOf(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return defaultContentType
}
