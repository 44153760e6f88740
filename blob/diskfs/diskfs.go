// Package diskfs provides a local-filesystem implementation of the blob.Store interface.
package diskfs

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/contentstore/blob"
)

const sniffLen = 512

// Store implements the blob.Store interface on a local directory tree.
// All paths are resolved inside the configured root; attempts to escape it
// are rejected.
type Store struct {
	root string
}

// New creates a disk store rooted at the given directory, creating it when absent.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errx.Wrap(err)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Upload streams the reader's content to the specified path.
//
// The content is written to a temporary file first and renamed into place,
// so a crashed upload never leaves a partial file at the target path. The
// stream is consumed exactly once.
func (s *Store) Upload(_ context.Context, path string, reader io.Reader) (*blob.FileInfo, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errx.Wrap(err)
	}

	// Sniff the content type from the first bytes without a second pass.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errx.Wrap(err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.MultiReader(strings.NewReader(string(head)), reader))
	if err != nil {
		tmp.Close()
		return nil, errx.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return nil, errx.Wrap(err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, errx.Wrap(err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &blob.FileInfo{
		Path:         path,
		Size:         written,
		ContentType:  contentType,
		LastModified: stat.ModTime(),
	}, nil
}

// Get retrieves a file and its metadata from the specified path.
func (s *Store) Get(_ context.Context, path string) (*blob.File, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if os.IsNotExist(err) {
		return nil, notFound(path)
	}
	if err != nil {
		return nil, errx.Wrap(err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errx.Wrap(err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		_ = f.Close()
		return nil, errx.Wrap(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, errx.Wrap(err)
	}

	return &blob.File{
		Content: f,
		Info: blob.FileInfo{
			Path:         path,
			Size:         stat.Size(),
			ContentType:  http.DetectContentType(head[:n]),
			LastModified: stat.ModTime(),
		},
	}, nil
}

// Delete removes a file at the specified path.
func (s *Store) Delete(_ context.Context, path string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}

	err = os.Remove(target)
	if os.IsNotExist(err) {
		return notFound(path)
	}
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

// Exists checks if a file exists at the specified path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	target, err := s.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(err)
	}
	return true, nil
}

// EnsureDir creates the directory at the given relative path.
func (s *Store) EnsureDir(_ context.Context, path string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	return errx.Wrap(os.MkdirAll(target, 0o755))
}

// resolve maps a relative storage path to an absolute one inside the root.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errx.New(
			"storage path escapes the storage root",
			errx.WithCode(blob.CodeInvalidPath),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"path": path}),
		)
	}
	return filepath.Join(s.root, clean), nil
}

func notFound(path string) error {
	return errx.New(
		"file not found",
		errx.WithCode(blob.CodeFileNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"path": path}),
	)
}
