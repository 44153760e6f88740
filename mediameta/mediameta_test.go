// Package mediameta_test contains tests for the mediameta package.
package mediameta_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/contentstore/mediameta"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		declaredMime string
		expectedMime string
		expectedExt  string
		expectedCat  mediameta.Category
	}{
		{
			name:         "declared mime wins",
			path:         "photo.bin",
			declaredMime: "image/jpeg",
			expectedMime: "image/jpeg",
			expectedExt:  ".bin",
			expectedCat:  mediameta.CategoryImage,
		},
		{
			name:         "resolved from extension",
			path:         "report.pdf",
			expectedMime: "application/pdf",
			expectedExt:  ".pdf",
			expectedCat:  mediameta.CategoryDocument,
		},
		{
			name:         "png image",
			path:         "logo.png",
			expectedMime: "image/png",
			expectedExt:  ".png",
			expectedCat:  mediameta.CategoryImage,
		},
		{
			name:         "docx is a document",
			path:         "contract.docx",
			declaredMime: mediameta.ContentTypeDOCX,
			expectedMime: mediameta.ContentTypeDOCX,
			expectedExt:  ".docx",
			expectedCat:  mediameta.CategoryDocument,
		},
		{
			name:         "xlsx is a spreadsheet",
			path:         "budget.xlsx",
			declaredMime: mediameta.ContentTypeXLSX,
			expectedMime: mediameta.ContentTypeXLSX,
			expectedExt:  ".xlsx",
			expectedCat:  mediameta.CategorySpreadsheet,
		},
		{
			name:         "pptx is a presentation",
			path:         "deck.pptx",
			declaredMime: mediameta.ContentTypePPTX,
			expectedMime: mediameta.ContentTypePPTX,
			expectedExt:  ".pptx",
			expectedCat:  mediameta.CategoryPresentation,
		},
		{
			name:         "mp4 is video",
			path:         "clip.mp4",
			declaredMime: "video/mp4",
			expectedMime: "video/mp4",
			expectedExt:  ".mp4",
			expectedCat:  mediameta.CategoryVideo,
		},
		{
			name:         "mp3 is audio",
			path:         "song.mp3",
			declaredMime: "audio/mpeg",
			expectedMime: "audio/mpeg",
			expectedExt:  ".mp3",
			expectedCat:  mediameta.CategoryAudio,
		},
		{
			name:         "zip is an archive",
			path:         "bundle.zip",
			declaredMime: "application/zip",
			expectedMime: "application/zip",
			expectedExt:  ".zip",
			expectedCat:  mediameta.CategoryArchive,
		},
		{
			name:         "plain text",
			path:         "notes.txt",
			declaredMime: "text/plain",
			expectedMime: "text/plain",
			expectedExt:  ".txt",
			expectedCat:  mediameta.CategoryText,
		},
		{
			name:         "json is code",
			path:         "config.json",
			declaredMime: "application/json",
			expectedMime: "application/json",
			expectedExt:  ".json",
			expectedCat:  mediameta.CategoryCode,
		},
		{
			name:         "go source via extension fallback",
			path:         "main.go",
			declaredMime: "application/octet-stream",
			expectedMime: "application/octet-stream",
			expectedExt:  ".go",
			expectedCat:  mediameta.CategoryCode,
		},
		{
			name:         "mixed case declared mime is lowered",
			path:         "photo.JPG",
			declaredMime: "IMAGE/JPEG",
			expectedMime: "image/jpeg",
			expectedExt:  ".jpg",
			expectedCat:  mediameta.CategoryImage,
		},
		{
			name:         "no extension no mime",
			path:         "mystery",
			expectedMime: "application/octet-stream",
			expectedExt:  "",
			expectedCat:  mediameta.CategoryUnknown,
		},
	}

	extractor := mediameta.New()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := extractor.Classify(tc.path, tc.declaredMime)

			assert.Equal(t, tc.expectedMime, info.MimeType)
			assert.Equal(t, tc.expectedExt, info.Extension)
			assert.Equal(t, tc.expectedCat, info.Category)
		})
	}
}

func TestHash(t *testing.T) {
	extractor := mediameta.New()

	content := []byte("the quick brown fox jumps over the lazy dog")
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sum := sha256.Sum256(content)
	expected := hex.EncodeToString(sum[:])

	t.Run("file hash matches direct digest", func(t *testing.T) {
		actual, err := extractor.Hash(path)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("reader hash matches file hash", func(t *testing.T) {
		actual, err := extractor.HashReader(bytes.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := extractor.Hash(filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})
}

func TestVerifyIntegrity(t *testing.T) {
	extractor := mediameta.New()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	hash, err := extractor.Hash(path)
	require.NoError(t, err)

	t.Run("matching hash", func(t *testing.T) {
		ok, err := extractor.VerifyIntegrity(path, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("mismatch is false not error", func(t *testing.T) {
		ok, err := extractor.VerifyIntegrity(path, "deadbeef")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corruption detected after rewrite", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("tampered"), 0o644))

		ok, err := extractor.VerifyIntegrity(path, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestExtractImage(t *testing.T) {
	extractor := mediameta.New()

	t.Run("png dimensions and format", func(t *testing.T) {
		var buf bytes.Buffer
		img := image.NewNRGBA(image.Rect(0, 0, 320, 200))
		require.NoError(t, png.Encode(&buf, img))

		meta, err := extractor.ExtractImage(&buf)
		require.NoError(t, err)

		assert.Equal(t, 320, meta[mediameta.KeyWidth])
		assert.Equal(t, 200, meta[mediameta.KeyHeight])
		assert.Equal(t, "png", meta[mediameta.KeyFormat])
		assert.Equal(t, true, meta[mediameta.KeyHasAlpha])
		assert.Nil(t, meta[mediameta.KeyOrientation])
	})

	t.Run("grayscale has one channel", func(t *testing.T) {
		var buf bytes.Buffer
		img := image.NewGray(image.Rect(0, 0, 10, 10))
		require.NoError(t, png.Encode(&buf, img))

		meta, err := extractor.ExtractImage(&buf)
		require.NoError(t, err)

		assert.Equal(t, false, meta[mediameta.KeyHasAlpha])
		assert.Equal(t, 1, meta[mediameta.KeyChannels])
		assert.Equal(t, "gray", meta[mediameta.KeyColorSpace])
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := extractor.ExtractImage(bytes.NewReader([]byte("not an image")))
		assert.Error(t, err)
	})
}

func TestExtract(t *testing.T) {
	extractor := mediameta.New()
	dir := t.TempDir()

	t.Run("image file", func(t *testing.T) {
		path := filepath.Join(dir, "img.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 64, 48))))
		require.NoError(t, f.Close())

		meta, err := extractor.Extract(path, "image/png")
		require.NoError(t, err)

		assert.Equal(t, 64, meta[mediameta.KeyWidth])
		assert.Equal(t, 48, meta[mediameta.KeyHeight])
	})

	t.Run("document gets size only", func(t *testing.T) {
		path := filepath.Join(dir, "doc.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

		meta, err := extractor.Extract(path, "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, int64(13), meta[mediameta.KeySizeBytes])
		assert.Nil(t, meta[mediameta.KeyPageCount])
		assert.Nil(t, meta[mediameta.KeyTitle])
		assert.Nil(t, meta[mediameta.KeyAuthor])
	})
}

// paletted images report as indexed color with an alpha channel.
func TestExtractImagePaletted(t *testing.T) {
	extractor := mediameta.New()

	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), color.Palette{
		color.Black, color.White,
	})
	require.NoError(t, png.Encode(&buf, img))

	meta, err := extractor.ExtractImage(&buf)
	require.NoError(t, err)

	assert.Equal(t, 16, meta[mediameta.KeyWidth])
	assert.Equal(t, "indexed", meta[mediameta.KeyColorSpace])
}
