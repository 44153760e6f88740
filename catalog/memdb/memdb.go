// Package memdb provides an in-memory implementation of the catalog.Catalog
// interface, used in tests and single-process setups.
package memdb

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/contentstore/catalog"
	"github.com/rise-and-shine/contentstore/sorter"
)

// DB implements catalog.Catalog with plain maps behind a mutex.
type DB struct {
	mu      sync.RWMutex
	files   map[string]catalog.FileRecord
	folders map[string]catalog.Folder
}

var _ catalog.Catalog = (*DB)(nil)

// New creates an empty in-memory catalog.
func New() *DB {
	return &DB{
		files:   make(map[string]catalog.FileRecord),
		folders: make(map[string]catalog.Folder),
	}
}

// CreateFile persists a new file record.
func (db *DB) CreateFile(_ context.Context, rec *catalog.FileRecord) (*catalog.FileRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec.Touch(time.Now())
	db.files[rec.ID] = cloneRecord(*rec)

	stored := cloneRecord(db.files[rec.ID])
	return &stored, nil
}

// GetFile returns the record with the given id for the given owner.
func (db *DB) GetFile(_ context.Context, id, ownerID string) (*catalog.FileRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rec, ok := db.files[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, fileNotFound(id)
	}

	out := cloneRecord(rec)
	return &out, nil
}

// UpdateFile persists changes to an existing record.
func (db *DB) UpdateFile(_ context.Context, rec *catalog.FileRecord) (*catalog.FileRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.files[rec.ID]
	if !ok || existing.OwnerID != rec.OwnerID {
		return nil, fileNotFound(rec.ID)
	}

	rec.Touch(time.Now())
	db.files[rec.ID] = cloneRecord(*rec)

	stored := cloneRecord(db.files[rec.ID])
	return &stored, nil
}

// DeleteFile removes the record with the given id for the given owner.
func (db *DB) DeleteFile(_ context.Context, id, ownerID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.files[id]
	if !ok || rec.OwnerID != ownerID {
		return false, nil
	}

	delete(db.files, id)
	return true, nil
}

// ListFiles returns one page of matching records and the total match count.
func (db *DB) ListFiles(
	_ context.Context,
	ownerID string,
	filter catalog.FileFilter,
	limit, offset int,
	order sorter.SortOpts,
) ([]catalog.FileRecord, int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := lo.Filter(lo.Values(db.files), func(rec catalog.FileRecord, _ int) bool {
		return rec.OwnerID == ownerID && matchesFilter(&rec, filter)
	})

	applyOrder(matched, order.OrDefault(catalog.DefaultFileOrder()...))

	total := int64(len(matched))

	if offset >= len(matched) {
		return []catalog.FileRecord{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	page := lo.Map(matched[offset:end], func(rec catalog.FileRecord, _ int) catalog.FileRecord {
		return cloneRecord(rec)
	})
	return page, total, nil
}

// CreateFolder persists a new folder, rejecting duplicate names under the
// same parent.
func (db *DB) CreateFolder(_ context.Context, folder *catalog.Folder) (*catalog.Folder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.folders {
		if existing.OwnerID == folder.OwnerID &&
			existing.Name == folder.Name &&
			sameParent(existing.ParentFolderID, folder.ParentFolderID) {
			return nil, errx.New(
				"folder already exists",
				errx.WithCode(catalog.CodeFolderExists),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(errx.D{"name": folder.Name}),
			)
		}
	}

	folder.Touch(time.Now())
	db.folders[folder.ID] = *folder

	stored := db.folders[folder.ID]
	return &stored, nil
}

// GetFolder returns the folder with the given id for the given owner.
func (db *DB) GetFolder(_ context.Context, id, ownerID string) (*catalog.Folder, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	folder, ok := db.folders[id]
	if !ok || folder.OwnerID != ownerID {
		return nil, errx.New(
			"folder not found",
			errx.WithCode(catalog.CodeFolderNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"folder_id": id}),
		)
	}

	return &folder, nil
}

// ListFolders returns the direct children of parentID (or root folders when
// parentID is nil), sorted by name.
func (db *DB) ListFolders(_ context.Context, ownerID string, parentID *string) ([]catalog.Folder, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := lo.Filter(lo.Values(db.folders), func(folder catalog.Folder, _ int) bool {
		return folder.OwnerID == ownerID && sameParent(folder.ParentFolderID, parentID)
	})

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})

	return matched, nil
}

// ListAllFolders returns every folder of the owner.
func (db *DB) ListAllFolders(_ context.Context, ownerID string) ([]catalog.Folder, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := lo.Filter(lo.Values(db.folders), func(folder catalog.Folder, _ int) bool {
		return folder.OwnerID == ownerID
	})

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Path < matched[j].Path
	})

	return matched, nil
}

func matchesFilter(rec *catalog.FileRecord, filter catalog.FileFilter) bool {
	if filter.Folder != "" && rec.Folder != filter.Folder {
		return false
	}
	if filter.MimePrefix != "" && !strings.HasPrefix(rec.MimeType, filter.MimePrefix) {
		return false
	}
	if filter.SearchText != "" {
		needle := strings.ToLower(filter.SearchText)
		if !strings.Contains(strings.ToLower(rec.OriginalName), needle) && !rec.HasTag(filter.SearchText) {
			return false
		}
	}
	return true
}

func applyOrder(records []catalog.FileRecord, order sorter.SortOpts) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, opt := range order {
			cmp := compareField(&records[i], &records[j], opt.F)
			if cmp == 0 {
				continue
			}
			if opt.D == sorter.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(a, b *catalog.FileRecord, field string) int {
	switch field {
	case "original_name":
		return strings.Compare(a.OriginalName, b.OriginalName)
	case "size_bytes":
		switch {
		case a.SizeBytes < b.SizeBytes:
			return -1
		case a.SizeBytes > b.SizeBytes:
			return 1
		}
		return 0
	default: // created_at
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	}
}

// cloneRecord detaches the mutable metadata map so callers never share it
// with the stored record or with each other.
func cloneRecord(rec catalog.FileRecord) catalog.FileRecord {
	rec.Metadata = maps.Clone(rec.Metadata)
	return rec
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fileNotFound(id string) error {
	return errx.New(
		"file not found",
		errx.WithCode(catalog.CodeFileNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"file_id": id}),
	)
}
