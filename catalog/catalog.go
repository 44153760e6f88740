// Package catalog defines the record store for file and folder metadata.
//
// It declares the Catalog interface that can be implemented by various
// backends (e.g., PostgreSQL, in-memory). The interface is designed to be
// injected into the file store; this package does not choose a storage
// engine.
package catalog

import (
	"context"

	"github.com/rise-and-shine/contentstore/sorter"
)

// Catalog defines the interface for file and folder record operations.
// Implementations must be safe for concurrent use.
//
// Lookup operations are owner-scoped: a record that exists but belongs to
// a different owner is reported as not found, so callers cannot distinguish
// absence from an ownership mismatch.
type Catalog interface {
	// CreateFile persists a new file record.
	CreateFile(ctx context.Context, rec *FileRecord) (*FileRecord, error)

	// GetFile returns the record with the given id for the given owner.
	// Returns an error with code CodeFileNotFound when no such record exists.
	GetFile(ctx context.Context, id, ownerID string) (*FileRecord, error)

	// UpdateFile persists changes to an existing record.
	UpdateFile(ctx context.Context, rec *FileRecord) (*FileRecord, error)

	// DeleteFile removes the record with the given id for the given owner.
	// Returns false when no such record existed; repeated calls are safe.
	DeleteFile(ctx context.Context, id, ownerID string) (bool, error)

	// ListFiles returns one page of records matching the filter together
	// with the total match count. Ordering follows the given sort options.
	ListFiles(
		ctx context.Context,
		ownerID string,
		filter FileFilter,
		limit, offset int,
		order sorter.SortOpts,
	) ([]FileRecord, int64, error)

	// CreateFolder persists a new folder.
	CreateFolder(ctx context.Context, folder *Folder) (*Folder, error)

	// GetFolder returns the folder with the given id for the given owner.
	// Returns an error with code CodeFolderNotFound when no such folder exists.
	GetFolder(ctx context.Context, id, ownerID string) (*Folder, error)

	// ListFolders returns the direct children of parentID, or the root
	// folders when parentID is nil, sorted by name.
	ListFolders(ctx context.Context, ownerID string, parentID *string) ([]Folder, error)

	// ListAllFolders returns every folder of the owner in a single pass.
	// Used for building folder trees.
	ListAllFolders(ctx context.Context, ownerID string) ([]Folder, error)
}

// FileFilter narrows ListFiles results. Zero-value fields are ignored.
type FileFilter struct {
	// Folder matches records assigned to the folder with this name.
	Folder string

	// MimePrefix matches records whose MIME type starts with this prefix
	// (e.g. "image/").
	MimePrefix string

	// SearchText matches records whose original name contains this text
	// (case-insensitive) or whose metadata tags include it.
	SearchText string
}

// SortableFileFields lists the record fields a caller may order by.
func SortableFileFields() []string {
	return []string{fieldCreatedAt, fieldOriginalName, fieldSizeBytes}
}

// DefaultFileOrder is the ordering applied when a caller specifies none:
// newest records first.
func DefaultFileOrder() sorter.SortOpts {
	return sorter.Make(sorter.Opt{F: fieldCreatedAt, D: sorter.Desc})
}

const (
	fieldCreatedAt    = "created_at"
	fieldOriginalName = "original_name"
	fieldSizeBytes    = "size_bytes"
)
