// Package filestore_test contains tests for the filestore package.
package filestore_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/contentstore/blob"
	"github.com/rise-and-shine/contentstore/blob/diskfs"
	"github.com/rise-and-shine/contentstore/catalog"
	"github.com/rise-and-shine/contentstore/catalog/memdb"
	"github.com/rise-and-shine/contentstore/filestore"
	"github.com/rise-and-shine/contentstore/logger"
	"github.com/rise-and-shine/contentstore/pagination"
	"github.com/rise-and-shine/contentstore/variantcache"
)

const owner = "user-1"

type fixture struct {
	svc   *filestore.Service
	blobs blob.Store
}

func newFixture(t *testing.T, cfg filestore.Config) *fixture {
	t.Helper()

	blobs, err := diskfs.New(t.TempDir())
	require.NoError(t, err)

	variants, err := variantcache.New(
		variantcache.Config{Root: t.TempDir()},
		blobs,
		logger.Nop(),
	)
	require.NoError(t, err)

	svc := filestore.New(cfg, memdb.New(), blobs, variants, logger.Nop())

	return &fixture{svc: svc, blobs: blobs}
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (f *fixture) upload(t *testing.T, name, mime string, content []byte) *catalog.FileRecord {
	t.Helper()

	res, err := f.svc.Upload(context.Background(), bytes.NewReader(content), filestore.UploadInput{
		OwnerID:          owner,
		Name:             name,
		DeclaredMimeType: mime,
	})
	require.NoError(t, err)
	return res.Record
}

func TestUploadRoundTrip(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	content := []byte("hello content store")

	res, err := f.svc.Upload(ctx, bytes.NewReader(content), filestore.UploadInput{
		OwnerID:          owner,
		Name:             "greeting.txt",
		DeclaredMimeType: "text/plain",
		Metadata:         map[string]any{"tags": []string{"demo"}},
	})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	rec := res.Record
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, owner, rec.OwnerID)
	assert.Equal(t, "greeting.txt", rec.OriginalName)
	assert.Equal(t, "text/plain", rec.MimeType)
	assert.Equal(t, int64(len(content)), rec.SizeBytes)
	assert.Equal(t, "default", rec.Folder)
	assert.Equal(t, catalog.StatusActive, rec.Status)
	assert.True(t, strings.HasPrefix(rec.RelativePath, "default/"))
	assert.True(t, strings.HasSuffix(rec.StorageName, ".txt"))
	assert.Len(t, rec.ContentHash, 64)
	assert.Equal(t, []string{"demo"}, rec.Tags())

	opened, err := f.svc.Open(ctx, rec.ID, owner)
	require.NoError(t, err)
	defer opened.Content.Close()

	got, err := io.ReadAll(opened.Content)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	ok, err := f.svc.Verify(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadSizeBoundary(t *testing.T) {
	f := newFixture(t, filestore.Config{MaxFileSize: 1024})
	ctx := context.Background()

	t.Run("exactly at the limit", func(t *testing.T) {
		res, err := f.svc.Upload(ctx, bytes.NewReader(make([]byte, 1024)), filestore.UploadInput{
			OwnerID: owner,
			Name:    "exact.bin",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1024), res.Record.SizeBytes)
	})

	t.Run("one byte over", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, bytes.NewReader(make([]byte, 1025)), filestore.UploadInput{
			OwnerID: owner,
			Name:    "over.bin",
		})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, filestore.CodeFileTooLarge))
	})

	t.Run("declared size over is rejected before writing", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, bytes.NewReader(nil), filestore.UploadInput{
			OwnerID:      owner,
			Name:         "claimed.bin",
			DeclaredSize: 4096,
		})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, filestore.CodeFileTooLarge))
	})

	t.Run("zero config falls back to the default limit", func(t *testing.T) {
		zf := newFixture(t, filestore.Config{})
		res, err := zf.svc.Upload(ctx, bytes.NewReader(make([]byte, 4096)), filestore.UploadInput{
			OwnerID: owner,
			Name:    "defaults.bin",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4096), res.Record.SizeBytes)
	})
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	t.Run("disallowed content type", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, bytes.NewReader([]byte("MZ")), filestore.UploadInput{
			OwnerID:          owner,
			Name:             "setup.exe",
			DeclaredMimeType: "application/x-msdownload",
		})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, filestore.CodeUnsupportedContentType))
	})

	t.Run("custom allow list", func(t *testing.T) {
		strict := newFixture(t, filestore.Config{AllowedMimeTypes: []string{"image/"}})

		_, err := strict.svc.Upload(ctx, bytes.NewReader([]byte("x")), filestore.UploadInput{
			OwnerID:          owner,
			Name:             "notes.txt",
			DeclaredMimeType: "text/plain",
		})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, filestore.CodeUnsupportedContentType))
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, bytes.NewReader([]byte("x")), filestore.UploadInput{
			Name: "orphan.txt",
		})
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Equal(t, errx.T_Validation, e.Type())
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, bytes.NewReader([]byte("x")), filestore.UploadInput{
			OwnerID: owner,
		})
		require.Error(t, err)
	})
}

func TestUploadImageThumbnails(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, bytes.NewReader(testPNG(t, 500, 500)), filestore.UploadInput{
		OwnerID:          owner,
		Name:             "photo.png",
		DeclaredMimeType: "image/png",
	})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	rec := res.Record
	assert.Equal(t, 500, rec.Metadata["width"])
	assert.Equal(t, 500, rec.Metadata["height"])

	thumbs := rec.Thumbnails()
	require.Len(t, thumbs, 3)

	for _, size := range []string{"150", "300", "600"} {
		path, ok := thumbs[size]
		require.True(t, ok, "missing thumbnail %s", size)

		exists, err := f.blobs.Exists(ctx, path)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	// A 600 bound on a 500x500 source stays at the native size.
	thumb, err := f.blobs.Get(ctx, thumbs["600"])
	require.NoError(t, err)
	defer thumb.Content.Close()

	cfg, _, err := image.DecodeConfig(thumb.Content)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	rec := f.upload(t, "photo.png", "image/png", testPNG(t, 120, 120))
	thumbs := rec.Thumbnails()
	require.NotEmpty(t, thumbs)

	deleted, err := f.svc.Delete(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.svc.Get(ctx, rec.ID, owner)
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, catalog.CodeFileNotFound))

	exists, err := f.blobs.Exists(ctx, rec.RelativePath)
	require.NoError(t, err)
	assert.False(t, exists)

	for _, path := range thumbs {
		exists, err := f.blobs.Exists(ctx, path)
		require.NoError(t, err)
		assert.False(t, exists)
	}

	t.Run("second delete reports nothing removed", func(t *testing.T) {
		deleted, err := f.svc.Delete(ctx, rec.ID, owner)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestOwnerScoping(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	rec := f.upload(t, "private.txt", "text/plain", []byte("secret"))

	_, err := f.svc.Get(ctx, rec.ID, "someone-else")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, catalog.CodeFileNotFound))

	deleted, err := f.svc.Delete(ctx, rec.ID, "someone-else")
	require.NoError(t, err)
	assert.False(t, deleted)

	// The record is untouched for its owner.
	_, err = f.svc.Get(ctx, rec.ID, owner)
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	f.upload(t, "alpha.txt", "text/plain", []byte("a"))
	f.upload(t, "bravo.png", "image/png", testPNG(t, 10, 10))
	_, err := f.svc.Upload(ctx, bytes.NewReader([]byte("c")), filestore.UploadInput{
		OwnerID:          owner,
		Name:             "charlie.txt",
		DeclaredMimeType: "text/plain",
		Metadata:         map[string]any{"tags": []string{"invoice", "2026"}},
	})
	require.NoError(t, err)

	t.Run("all files newest first", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{}, pagination.Request{}, "")
		require.NoError(t, err)

		assert.Equal(t, int64(3), page.TotalCount)
		assert.Len(t, page.PageContent, 3)
	})

	t.Run("mime prefix filter", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{MimePrefix: "image/"}, pagination.Request{}, "")
		require.NoError(t, err)

		require.Len(t, page.PageContent, 1)
		assert.Equal(t, "bravo.png", page.PageContent[0].OriginalName)
	})

	t.Run("search by name", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{SearchText: "ALPHA"}, pagination.Request{}, "")
		require.NoError(t, err)

		require.Len(t, page.PageContent, 1)
		assert.Equal(t, "alpha.txt", page.PageContent[0].OriginalName)
	})

	t.Run("search by tag", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{SearchText: "invoice"}, pagination.Request{}, "")
		require.NoError(t, err)

		require.Len(t, page.PageContent, 1)
		assert.Equal(t, "charlie.txt", page.PageContent[0].OriginalName)
	})

	t.Run("sort by name ascending", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{}, pagination.Request{}, "original_name:asc")
		require.NoError(t, err)

		names := make([]string, 0, len(page.PageContent))
		for _, rec := range page.PageContent {
			names = append(names, rec.OriginalName)
		}
		assert.Equal(t, []string{"alpha.txt", "bravo.png", "charlie.txt"}, names)
	})

	t.Run("pagination windows", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, catalog.FileFilter{},
			pagination.Request{PageNumber: 2, PageSize: 2}, "original_name:asc")
		require.NoError(t, err)

		assert.Equal(t, int64(3), page.TotalCount)
		assert.Equal(t, 2, page.PageCount)
		require.Len(t, page.PageContent, 1)
		assert.Equal(t, "charlie.txt", page.PageContent[0].OriginalName)
	})

	t.Run("other owners see nothing", func(t *testing.T) {
		page, err := f.svc.List(ctx, "someone-else", catalog.FileFilter{}, pagination.Request{}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.TotalCount)
	})
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	rec := f.upload(t, "draft.txt", "text/plain", []byte("v1"))

	updated, err := f.svc.Update(ctx, rec.ID, owner, map[string]any{
		"originalName": "final.txt",
		"metadata":     map[string]any{"reviewed": true},
		"sizeBytes":    999999,
		"contentHash":  "forged",
	})
	require.NoError(t, err)

	assert.Equal(t, "final.txt", updated.OriginalName)
	assert.Equal(t, true, updated.Metadata["reviewed"])

	// Non-updatable fields are silently dropped.
	assert.Equal(t, rec.SizeBytes, updated.SizeBytes)
	assert.Equal(t, rec.ContentHash, updated.ContentHash)

	t.Run("metadata patch merges", func(t *testing.T) {
		again, err := f.svc.Update(ctx, rec.ID, owner, map[string]any{
			"metadata": map[string]any{"stage": "done"},
		})
		require.NoError(t, err)

		assert.Equal(t, true, again.Metadata["reviewed"])
		assert.Equal(t, "done", again.Metadata["stage"])
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "missing", owner, map[string]any{"originalName": "x"})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, catalog.CodeFileNotFound))
	})
}

func TestVerifyDetectsCorruption(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	rec := f.upload(t, "ledger.txt", "text/plain", []byte("original bytes"))

	_, err := f.blobs.Upload(ctx, rec.RelativePath, bytes.NewReader([]byte("tampered bytes")))
	require.NoError(t, err)

	ok, err := f.svc.Verify(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArchive(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	rec := f.upload(t, "old.txt", "text/plain", []byte("x"))

	archived, err := f.svc.Archive(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusArchived, archived.Status)

	t.Run("idempotent", func(t *testing.T) {
		again, err := f.svc.Archive(ctx, rec.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusArchived, again.Status)
	})
}

func TestFolders(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	root, err := f.svc.CreateFolder(ctx, owner, "projects", nil)
	require.NoError(t, err)
	assert.Equal(t, "projects", root.Path)
	assert.Equal(t, 0, root.Depth())

	child, err := f.svc.CreateFolder(ctx, owner, "2026", &root.ID)
	require.NoError(t, err)
	assert.Equal(t, "projects/2026", child.Path)
	assert.Equal(t, 1, child.Depth())

	t.Run("duplicate sibling rejected", func(t *testing.T) {
		_, err := f.svc.CreateFolder(ctx, owner, "2026", &root.ID)
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, catalog.CodeFolderExists))
	})

	t.Run("list children", func(t *testing.T) {
		children, err := f.svc.ListFolders(ctx, owner, &root.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "2026", children[0].Name)
	})

	t.Run("upload into folder resolves its id", func(t *testing.T) {
		res, err := f.svc.Upload(ctx, bytes.NewReader([]byte("x")), filestore.UploadInput{
			OwnerID:          owner,
			Name:             "plan.txt",
			DeclaredMimeType: "text/plain",
			Folder:           "projects/2026",
		})
		require.NoError(t, err)

		assert.Equal(t, "projects/2026", res.Record.Folder)
		assert.Equal(t, child.ID, res.Record.FolderID)
		assert.True(t, strings.HasPrefix(res.Record.RelativePath, "projects/2026/"))
	})
}

func TestOpenVariant(t *testing.T) {
	f := newFixture(t, filestore.Config{})
	ctx := context.Background()

	imageRec := f.upload(t, "photo.png", "image/png", testPNG(t, 400, 400))
	textRec := f.upload(t, "notes.txt", "text/plain", []byte("plain text"))

	t.Run("resized image", func(t *testing.T) {
		rec, data, err := f.svc.OpenVariant(ctx, imageRec.ID, owner, variantcache.Options{
			Width:  100,
			Height: 100,
			Format: "png",
		})
		require.NoError(t, err)
		assert.Equal(t, imageRec.ID, rec.ID)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.Width)
		assert.Equal(t, 100, cfg.Height)
	})

	t.Run("passthrough for any type", func(t *testing.T) {
		_, data, err := f.svc.OpenVariant(ctx, textRec.ID, owner, variantcache.Options{})
		require.NoError(t, err)
		assert.Equal(t, []byte("plain text"), data)
	})

	t.Run("transform of non-image rejected", func(t *testing.T) {
		_, _, err := f.svc.OpenVariant(ctx, textRec.ID, owner, variantcache.Options{Width: 100})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, filestore.CodeUnsupportedContentType))
	})
}
