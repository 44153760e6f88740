package catalog

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/contentstore/pg"
)

// Status is the lifecycle state of a file record.
// The progression is linear: active -> archived -> deleted, terminal at deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Metadata keys with defined meaning. Everything else in the metadata map
// is opaque caller data.
const (
	// MetaKeyThumbnails holds a sub-map of thumbnail size name to the
	// relative path of the generated thumbnail file.
	MetaKeyThumbnails = "thumbnails"

	// MetaKeyTags holds a list of caller-assigned tags matched by
	// FileFilter.SearchText.
	MetaKeyTags = "tags"
)

// FileRecord is the catalog entry for one stored file.
//
// Invariant: for every record with Status == StatusActive, RelativePath
// resolves to existing bytes whose SHA-256 digest equals ContentHash. The
// invariant is verifiable on demand, not continuously enforced.
type FileRecord struct {
	bun.BaseModel `bun:"table:files"`

	ID           string         `bun:"id,pk"                  json:"id"`
	OwnerID      string         `bun:"owner_id,notnull"       json:"owner_id"`
	OriginalName string         `bun:"original_name,notnull"  json:"original_name"`
	StorageName  string         `bun:"storage_name,notnull"   json:"storage_name"`
	RelativePath string         `bun:"relative_path,notnull"  json:"relative_path"`
	MimeType     string         `bun:"mime_type,notnull"      json:"mime_type"`
	SizeBytes    int64          `bun:"size_bytes,notnull"     json:"size_bytes"`
	ContentHash  string         `bun:"content_hash,notnull"   json:"content_hash"`
	Folder       string         `bun:"folder,notnull"         json:"folder"`
	FolderID     string         `bun:"folder_id,nullzero"     json:"folder_id,omitempty"`
	Status       Status         `bun:"status,notnull"         json:"status"`
	Metadata     map[string]any `bun:"metadata,type:jsonb"    json:"metadata"`

	pg.Timestamps
}

// Thumbnails returns the size-name to relative-path map recorded during
// upload, or an empty map when none were generated.
func (r *FileRecord) Thumbnails() map[string]string {
	if r.Metadata == nil {
		return map[string]string{}
	}
	return cast.ToStringMapString(r.Metadata[MetaKeyThumbnails])
}

// Tags returns the caller-assigned tags, or nil when none are set.
func (r *FileRecord) Tags() []string {
	if r.Metadata == nil {
		return nil
	}
	return cast.ToStringSlice(r.Metadata[MetaKeyTags])
}

// HasTag reports whether any tag contains the given text, case-insensitive.
func (r *FileRecord) HasTag(text string) bool {
	needle := strings.ToLower(text)
	for _, tag := range r.Tags() {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Folder is a node in the hierarchical naming namespace that file records
// are assigned into.
//
// Path is materialized at creation time: parent.Path + "/" + Name, or Name
// for a root folder. It is not recomputed afterwards; folder rename is not
// an operation of this store.
type Folder struct {
	bun.BaseModel `bun:"table:folders"`

	ID             string  `bun:"id,pk"                     json:"id"`
	OwnerID        string  `bun:"owner_id,notnull"          json:"owner_id"`
	Name           string  `bun:"name,notnull"              json:"name"`
	ParentFolderID *string `bun:"parent_folder_id,nullzero" json:"parent_folder_id,omitempty"`
	Path           string  `bun:"path,notnull"              json:"path"`
	Status         Status  `bun:"status,notnull"            json:"status"`

	pg.Timestamps
}

// Depth is the folder's nesting level: the count of path segments minus one.
// Root folders have depth zero.
func (f *Folder) Depth() int {
	if f.Path == "" {
		return 0
	}
	return strings.Count(f.Path, "/")
}
