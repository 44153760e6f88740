package filestore

import (
	"io"

	"github.com/rise-and-shine/contentstore/catalog"
)

// UploadInput carries everything known about an incoming file besides its
// content stream.
type UploadInput struct {
	// OwnerID scopes the record. Every later operation on the file must
	// present the same owner.
	OwnerID string `json:"owner_id" validate:"required"`

	// Name is the caller-facing original file name. Its extension drives
	// MIME resolution when DeclaredMimeType is empty.
	Name string `json:"name" validate:"required,max=512"`

	// DeclaredMimeType is the caller's content type claim. It is checked
	// against the allow-list; empty means resolve from the name's extension.
	DeclaredMimeType string `json:"declared_mime_type"`

	// DeclaredSize is the caller's size claim in bytes, when known. A claim
	// over the limit is rejected before any byte is written; the actual
	// streamed size is enforced regardless. Zero means unknown.
	DeclaredSize int64 `json:"declared_size" validate:"gte=0"`

	// Folder names the logical folder the file lands in. Empty means the
	// default folder.
	Folder string `json:"folder"`

	// Metadata is opaque caller data merged with the extracted technical
	// metadata. Caller keys never overwrite extracted ones.
	Metadata map[string]any `json:"metadata"`
}

// UploadResult is the outcome of a successful upload.
//
// Warnings report non-fatal post-storage failures (thumbnail generation);
// the file itself is stored and cataloged even when warnings are present.
type UploadResult struct {
	Record   *catalog.FileRecord `json:"record"`
	Warnings []string            `json:"warnings,omitempty"`
}

// OpenResult pairs a file record with its content stream.
// The caller is responsible for closing Content.
type OpenResult struct {
	Record  *catalog.FileRecord
	Content io.ReadCloser
}
