// Package contentstore wires the store's components into a ready-to-use
// facade: blob backend, catalog, variant cache, file store and folder index,
// all built from a single configuration struct.
package contentstore

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/contentstore/blob"
	"github.com/rise-and-shine/contentstore/blob/diskfs"
	"github.com/rise-and-shine/contentstore/blob/miniowr"
	"github.com/rise-and-shine/contentstore/catalog"
	"github.com/rise-and-shine/contentstore/catalog/memdb"
	"github.com/rise-and-shine/contentstore/catalog/pgdb"
	"github.com/rise-and-shine/contentstore/filestore"
	"github.com/rise-and-shine/contentstore/folderindex"
	"github.com/rise-and-shine/contentstore/logger"
	"github.com/rise-and-shine/contentstore/pg"
	"github.com/rise-and-shine/contentstore/variantcache"
)

// Storage backends.
const (
	BackendDisk  = "disk"
	BackendMinio = "minio"
)

// Catalog backends.
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
)

// Config is the full configuration of a content store instance.
// Load it with cfgloader.MustLoad or populate it directly.
type Config struct {
	Logger  logger.Config       `yaml:"logger"`
	Storage StorageConfig       `yaml:"storage"`
	Catalog CatalogConfig       `yaml:"catalog"`
	Cache   variantcache.Config `yaml:"cache"`
	Files   filestore.Config    `yaml:"files"`
}

// StorageConfig selects and configures the byte-storage backend.
type StorageConfig struct {
	Backend string `yaml:"backend" default:"disk"`

	// Root is the storage directory for the disk backend.
	Root string `yaml:"root" default:"./data/files"`

	// Minio configures the minio backend; ignored for disk.
	Minio miniowr.Config `yaml:"minio"`
}

// CatalogConfig selects and configures the metadata catalog backend.
type CatalogConfig struct {
	Backend string `yaml:"backend" default:"memory"`

	// PG configures the postgres backend; ignored for memory.
	PG pg.Config `yaml:"pg"`
}

// Store bundles the constructed components.
type Store struct {
	Files    *filestore.Service
	Folders  *folderindex.Index
	Variants *variantcache.Cache
	Catalog  catalog.Catalog
	Blobs    blob.Store
	Log      logger.Logger

	db *bun.DB
}

// New builds a content store from the configuration.
func New(cfg Config) (*Store, error) {
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	blobs, err := newBlobStore(cfg.Storage)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	cat, db, err := newCatalog(cfg.Catalog, log)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	variants, err := variantcache.New(cfg.Cache, blobs, log)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Store{
		Files:    filestore.New(cfg.Files, cat, blobs, variants, log),
		Folders:  folderindex.New(cat),
		Variants: variants,
		Catalog:  cat,
		Blobs:    blobs,
		Log:      log,
		db:       db,
	}, nil
}

// EnsureSchema creates the catalog tables for the postgres backend.
// It is a no-op for the in-memory catalog.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return pgdb.EnsureSchema(ctx, s.db)
}

// Close releases held resources: the database connection and buffered logs.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return errx.Wrap(err)
		}
	}
	_ = s.Log.Sync()
	return nil
}

func newBlobStore(cfg StorageConfig) (blob.Store, error) {
	switch cfg.Backend {
	case BackendMinio:
		return miniowr.New(cfg.Minio)
	case BackendDisk, "":
		return diskfs.New(cfg.Root)
	default:
		return nil, errx.New(fmt.Sprintf("unknown storage backend %q", cfg.Backend))
	}
}

func newCatalog(cfg CatalogConfig, log logger.Logger) (catalog.Catalog, *bun.DB, error) {
	switch cfg.Backend {
	case CatalogPostgres:
		db, err := pg.NewBunDB(cfg.PG, log)
		if err != nil {
			return nil, nil, errx.Wrap(err)
		}
		return pgdb.New(db), db, nil
	case CatalogMemory, "":
		return memdb.New(), nil, nil
	default:
		return nil, nil, errx.New(fmt.Sprintf("unknown catalog backend %q", cfg.Backend))
	}
}
