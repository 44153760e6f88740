// Package pgdb provides a PostgreSQL implementation of the catalog.Catalog
// interface built on the Bun ORM.
package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/contentstore/catalog"
	"github.com/rise-and-shine/contentstore/pg"
	"github.com/rise-and-shine/contentstore/sorter"
)

// DB implements catalog.Catalog on a bun database handle.
type DB struct {
	idb bun.IDB
}

var _ catalog.Catalog = (*DB)(nil)

// New creates a PostgreSQL-backed catalog.
func New(idb bun.IDB) *DB {
	return &DB{idb: idb}
}

// CreateFile persists a new file record.
func (db *DB) CreateFile(ctx context.Context, rec *catalog.FileRecord) (*catalog.FileRecord, error) {
	q := db.idb.NewInsert().Model(rec).Returning("*")
	if _, err := q.Exec(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return rec, nil
}

// GetFile returns the record with the given id for the given owner.
func (db *DB) GetFile(ctx context.Context, id, ownerID string) (*catalog.FileRecord, error) {
	rec := new(catalog.FileRecord)

	err := db.idb.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if pg.IsNotFound(err) {
		return nil, fileNotFound(id)
	}
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return rec, nil
}

// UpdateFile persists changes to an existing record.
func (db *DB) UpdateFile(ctx context.Context, rec *catalog.FileRecord) (*catalog.FileRecord, error) {
	q := db.idb.NewUpdate().
		Model(rec).
		WherePK().
		Where("owner_id = ?", rec.OwnerID).
		Returning("*")

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if affected == 0 {
		return nil, fileNotFound(rec.ID)
	}

	return rec, nil
}

// DeleteFile removes the record with the given id for the given owner.
func (db *DB) DeleteFile(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := db.idb.NewDelete().
		Model((*catalog.FileRecord)(nil)).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return false, errx.Wrap(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err)
	}

	return affected > 0, nil
}

// ListFiles returns one page of matching records and the total match count.
func (db *DB) ListFiles(
	ctx context.Context,
	ownerID string,
	filter catalog.FileFilter,
	limit, offset int,
	order sorter.SortOpts,
) ([]catalog.FileRecord, int64, error) {
	records := make([]catalog.FileRecord, 0)

	q := db.idb.NewSelect().
		Model(&records).
		Where("owner_id = ?", ownerID)

	q = applyFilter(q, filter)

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, errx.Wrap(err)
	}

	for _, opt := range order.OrDefault(catalog.DefaultFileOrder()...) {
		q = q.Order(opt.ToSQL())
	}

	err = q.Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		return nil, 0, errx.Wrap(err)
	}

	return records, int64(total), nil
}

// CreateFolder persists a new folder.
func (db *DB) CreateFolder(ctx context.Context, folder *catalog.Folder) (*catalog.Folder, error) {
	q := db.idb.NewInsert().Model(folder).Returning("*")
	_, err := q.Exec(ctx)
	if pg.IsConflict(err) {
		return nil, errx.New(
			"folder already exists",
			errx.WithCode(catalog.CodeFolderExists),
			errx.WithType(errx.T_Conflict),
			errx.WithDetails(errx.D{"name": folder.Name}),
		)
	}
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return folder, nil
}

// GetFolder returns the folder with the given id for the given owner.
func (db *DB) GetFolder(ctx context.Context, id, ownerID string) (*catalog.Folder, error) {
	folder := new(catalog.Folder)

	err := db.idb.NewSelect().
		Model(folder).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if pg.IsNotFound(err) {
		return nil, errx.New(
			"folder not found",
			errx.WithCode(catalog.CodeFolderNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"folder_id": id}),
		)
	}
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return folder, nil
}

// ListFolders returns the direct children of parentID (or root folders when
// parentID is nil), sorted by name.
func (db *DB) ListFolders(ctx context.Context, ownerID string, parentID *string) ([]catalog.Folder, error) {
	folders := make([]catalog.Folder, 0)

	q := db.idb.NewSelect().
		Model(&folders).
		Where("owner_id = ?", ownerID).
		Order("name asc")

	if parentID == nil {
		q = q.Where("parent_folder_id IS NULL")
	} else {
		q = q.Where("parent_folder_id = ?", *parentID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err)
	}

	return folders, nil
}

// ListAllFolders returns every folder of the owner in a single pass.
func (db *DB) ListAllFolders(ctx context.Context, ownerID string) ([]catalog.Folder, error) {
	folders := make([]catalog.Folder, 0)

	err := db.idb.NewSelect().
		Model(&folders).
		Where("owner_id = ?", ownerID).
		Order("path asc").
		Scan(ctx)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return folders, nil
}

func applyFilter(q *bun.SelectQuery, filter catalog.FileFilter) *bun.SelectQuery {
	if filter.Folder != "" {
		q = q.Where("folder = ?", filter.Folder)
	}
	if filter.MimePrefix != "" {
		q = q.Where("mime_type LIKE ?", escapeLike(filter.MimePrefix)+"%")
	}
	if filter.SearchText != "" {
		pattern := "%" + escapeLike(filter.SearchText) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("original_name ILIKE ?", pattern).
				WhereOr(
					"EXISTS (SELECT 1 FROM jsonb_array_elements_text(metadata->'tags') AS tag WHERE tag ILIKE ?)",
					pattern,
				)
		})
	}
	return q
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func fileNotFound(id string) error {
	return errx.New(
		fmt.Sprintf("file %s not found", id),
		errx.WithCode(catalog.CodeFileNotFound),
		errx.WithType(errx.T_NotFound),
	)
}
