package pgdb

import (
	"context"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/contentstore/catalog"
)

// EnsureSchema creates the catalog tables when they do not exist yet.
// Intended for local and test environments; production deployments manage
// schema through their own migration tooling.
func EnsureSchema(ctx context.Context, idb bun.IDB) error {
	models := []any{
		(*catalog.FileRecord)(nil),
		(*catalog.Folder)(nil),
	}

	for _, model := range models {
		_, err := idb.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errx.Wrap(err)
		}
	}

	_, err := idb.NewCreateIndex().
		Model((*catalog.Folder)(nil)).
		Index("folders_owner_parent_name_uq").
		Unique().
		IfNotExists().
		Column("owner_id", "parent_folder_id", "name").
		Exec(ctx)
	if err != nil {
		return errx.Wrap(err)
	}

	return nil
}
