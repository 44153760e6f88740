// Package variantcache lazily computes and caches transformed variants of
// stored images (resizes and format re-encodes).
//
// A variant is a pure function of its source path and transform options, so
// the cache needs no synchronization: two concurrent misses for the same
// key may both compute and both write, and the redundant work is the only
// cost of the race.
package variantcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/disintegration/imaging"

	"github.com/rise-and-shine/contentstore/blob"
	"github.com/rise-and-shine/contentstore/logger"
)

const (
	imagesSubdir = "images"

	// evictShare is the share of cached files removed per eviction pass,
	// oldest first by modification time. Eviction counts files rather than
	// bytes; tracking per-entry size would allow evicting exactly down to
	// budget, at the cost of an ordered index.
	evictShare = 4
)

// Config defines the configuration options for the variant cache.
type Config struct {
	// Root is the directory the cache tree lives under.
	Root string `yaml:"root" validate:"required"`

	// MaxSizeBytes is the cache size budget checked by EvictIfOverBudget.
	MaxSizeBytes int64 `yaml:"max_size_bytes" default:"536870912"`
}

// Cache computes and stores image variants under a local directory tree.
type Cache struct {
	root    string
	maxSize int64
	source  blob.Store
	log     logger.Logger

	hits  atomic.Int64
	fills atomic.Int64
}

// Stats describes the cache tree and its runtime counters.
type Stats struct {
	TotalSizeBytes int64
	FileCount      int

	// Hits and Fills count Transform calls served from cache and calls
	// that computed a fresh variant since the cache was constructed.
	Hits  int64
	Fills int64
}

// New creates a variant cache rooted at cfg.Root, reading source bytes
// through the given blob store.
func New(cfg Config, source blob.Store, log logger.Logger) (*Cache, error) {
	if log == nil {
		log = logger.Nop()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Join(root, imagesSubdir), 0o755); err != nil {
		return nil, errx.Wrap(err)
	}

	return &Cache{
		root:    root,
		maxSize: cfg.MaxSizeBytes,
		source:  source,
		log:     log.Named("variantcache"),
	}, nil
}

// Transform returns the variant of the source image described by opts,
// computing and caching it on first request. Repeated calls with identical
// options return byte-identical output. Omitting both width and height
// serves the original source bytes unmodified.
func (c *Cache) Transform(ctx context.Context, sourcePath string, opts Options) ([]byte, error) {
	opts = opts.normalize()

	if opts.passthrough() {
		return c.readSource(ctx, sourcePath)
	}

	cachePath := c.cachePath(sourcePath, opts)

	if data, err := os.ReadFile(cachePath); err == nil {
		c.hits.Add(1)
		return data, nil
	}

	data, err := c.fill(ctx, sourcePath, cachePath, opts)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return data, nil
}

// CacheKey returns the deterministic key for a source path and option set.
// The variant's physical location is fully determined by it.
func (c *Cache) CacheKey(sourcePath string, opts Options) string {
	opts = opts.normalize()
	sum := sha256.Sum256([]byte(sourcePath + "|" + opts.canonical()))
	return hex.EncodeToString(sum[:])
}

// Stats walks the cache tree and reports its cumulative size and file count.
func (c *Cache) Stats(_ context.Context) (Stats, error) {
	stats := Stats{
		Hits:  c.hits.Load(),
		Fills: c.fills.Load(),
	}

	err := filepath.Walk(c.root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		stats.TotalSizeBytes += info.Size()
		stats.FileCount++
		return nil
	})
	if err != nil {
		return Stats{}, errx.Wrap(err)
	}

	return stats, nil
}

// EvictIfOverBudget removes the oldest quarter of cached files (by
// modification time) when the cache tree exceeds its size budget.
// Returns the number of files removed.
func (c *Cache) EvictIfOverBudget(ctx context.Context) (int, error) {
	stats, err := c.Stats(ctx)
	if err != nil {
		return 0, errx.Wrap(err)
	}

	if stats.TotalSizeBytes <= c.maxSize {
		return 0, nil
	}

	entries, err := c.listEntries()
	if err != nil {
		return 0, errx.Wrap(err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})

	toRemove := (len(entries) + evictShare - 1) / evictShare
	removed := 0
	for _, entry := range entries[:toRemove] {
		if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
			c.log.With("path", entry.path, "error", err).Warn("failed to evict cache entry")
			continue
		}
		removed++
	}

	c.log.With("removed", removed, "total_size_bytes", stats.TotalSizeBytes).Info("cache eviction pass finished")
	return removed, nil
}

// Clear deletes the entire cache tree and recreates an empty root.
func (c *Cache) Clear(_ context.Context) error {
	if err := os.RemoveAll(c.root); err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(os.MkdirAll(filepath.Join(c.root, imagesSubdir), 0o755))
}

// fill computes a variant and writes it to the cache path.
//
// The write goes through a temp file and rename, so a concurrent reader
// never observes a partially written variant. Concurrent fills for the
// same key are tolerated: both produce identical bytes.
func (c *Cache) fill(ctx context.Context, sourcePath, cachePath string, opts Options) ([]byte, error) {
	src, err := c.source.Get(ctx, sourcePath)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer src.Content.Close()

	img, err := imaging.Decode(src.Content)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	bounds := img.Bounds()
	width := capDimension(opts.Width, bounds.Dx())
	height := capDimension(opts.Height, bounds.Dy())

	resized := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := encodeImage(&buf, resized, opts); err != nil {
		return nil, errx.Wrap(err)
	}

	if err := c.writeAtomic(cachePath, buf.Bytes()); err != nil {
		return nil, errx.Wrap(err)
	}

	c.fills.Add(1)
	return buf.Bytes(), nil
}

func (c *Cache) readSource(ctx context.Context, sourcePath string) ([]byte, error) {
	src, err := c.source.Get(ctx, sourcePath)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer src.Content.Close()

	data, err := io.ReadAll(src.Content)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return data, nil
}

func (c *Cache) cachePath(sourcePath string, opts Options) string {
	key := c.CacheKey(sourcePath, opts)
	return filepath.Join(c.root, imagesSubdir, key+"."+opts.normalize().Format)
}

func (c *Cache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "fill-*")
	if err != nil {
		return errx.Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errx.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errx.Wrap(err)
	}

	return errx.Wrap(os.Rename(tmp.Name(), path))
}

type cacheEntry struct {
	path    string
	modTime time.Time
}

func (c *Cache) listEntries() ([]cacheEntry, error) {
	var entries []cacheEntry
	err := filepath.Walk(c.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		entries = append(entries, cacheEntry{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return entries, nil
}

// capDimension bounds a requested dimension by the source's native one.
// Zero means unbounded on that axis, which collapses to the source size.
func capDimension(requested, source int) int {
	if requested <= 0 || requested > source {
		return source
	}
	return requested
}

// encodeImage encodes an image with the requested format and quality.
func encodeImage(buf *bytes.Buffer, img image.Image, opts Options) error {
	switch opts.Format {
	case "png":
		return imaging.Encode(buf, img, imaging.PNG)
	case "gif":
		return imaging.Encode(buf, img, imaging.GIF)
	default:
		return imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	}
}
