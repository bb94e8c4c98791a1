package storage

import (
	"context"
	"errors"
)

// Sentinel errors for blob store operations
var (
	// ErrObjectNotFound indicates the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates insufficient permissions for the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrNetworkError indicates a network connectivity issue
	ErrNetworkError = errors.New("network error")
)

// Listing is one level of a folder-like prefix: immediate child prefixes
// (with trailing slash) and immediate child object keys.
type Listing struct {
	Prefixes []string
	Objects  []string
}

// BlobStore is a path-addressed blob tree with folder-like prefixes.
// Keys use forward slashes; a trailing slash denotes a prefix.
type BlobStore interface {
	// WriteBytes stores data at key, overwriting any existing object.
	WriteBytes(ctx context.Context, key string, data []byte) error

	// WriteFile stores the contents of a local file at key.
	WriteFile(ctx context.Context, key, localPath string) error

	// ReadBytes returns the full contents of the object at key.
	ReadBytes(ctx context.Context, key string) ([]byte, error)

	// ReadFile downloads the object at key to a local file.
	ReadFile(ctx context.Context, key, localPath string) error

	// ListChildren enumerates the first level under prefix.
	ListChildren(ctx context.Context, prefix string) (Listing, error)
}
