// Package store defines where run artifacts (topic maps, ordinations,
// performance logs) are written, and the Store implementations.
package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Resource embeds an io.ReadCloser around stored data.
// Length: length in bytes of the data.
type Resource struct {
	io.ReadCloser
	Length int64
}

func NewResource(rc io.ReadCloser, l int64) *Resource {
	return &Resource{ReadCloser: rc, Length: l}
}

// Read-only operations on store.
type StoreRead interface {
	// Check if the artifact exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Open the artifact for streaming read. It is the caller's responsibility to call Close().
	OpenForRead(ctx context.Context, name string) (*Resource, error)

	// Get the base location, like a directory or bucket URI, that the Store writes to.
	Root() string
}

// Write operations on store, limited to one-shot writes since artifacts are immutable.
type StoreWrite interface {
	// Write stores size bytes from r under name. A negative size means unknown.
	// Names are slash separated and relative to Root.
	Write(ctx context.Context, name string, r io.Reader, size int64) error
}

type Store interface {
	StoreRead
	StoreWrite
}

// checkName rejects names that would escape the store root.
func checkName(name string) (string, error) {
	clean := path.Clean(name)
	if name == "" || clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return clean, nil
}
