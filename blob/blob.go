// Package blob provides an abstraction for raw byte storage.
//
// It defines a Store interface implemented by storage backends (local
// filesystem, MinIO). The file store composes over it and never touches a
// backend directly, so physical layout and transport stay swappable.
package blob

import (
	"context"
	"io"
	"time"
)

// Store defines the interface for byte storage operations.
// Implementations must be safe for concurrent use.
//
// Paths are relative, slash-separated and interpreted against the
// backend's configured root (directory, bucket).
type Store interface {
	// Upload streams the reader's content to the specified path, creating
	// intermediate directories as needed. Returns the file info after a
	// successful write. Upload never reads the stream more than once.
	Upload(ctx context.Context, path string, reader io.Reader) (*FileInfo, error)

	// Get retrieves a file and its metadata from the specified path.
	// The caller is responsible for closing File.Content.
	Get(ctx context.Context, path string) (*File, error)

	// Delete removes a file at the specified path. Deleting a missing file
	// returns an error with code CodeFileNotFound.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// EnsureDir creates the directory at the given relative path when the
	// backend has a physical directory concept; otherwise it is a no-op.
	EnsureDir(ctx context.Context, path string) error
}

// File represents a stored file with its content and metadata.
type File struct {
	Content io.ReadCloser
	Info    FileInfo
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Path         string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}
