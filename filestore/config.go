package filestore

import "github.com/rise-and-shine/contentstore/mediameta"

const (
	defaultFolder      = "default"
	defaultMaxFileSize = 50 << 20
)

// Config defines the configuration options for the file store.
type Config struct {
	// MaxFileSize is the largest accepted upload in bytes. A file exactly
	// at the limit is accepted; one byte over is rejected. Default is 50 MiB.
	MaxFileSize int64 `yaml:"max_file_size" default:"52428800"`

	// AllowedMimeTypes is the upload allow-list. An entry ending in "/"
	// matches the whole top-level type (e.g. "image/"). Empty means the
	// built-in default list.
	AllowedMimeTypes []string `yaml:"allowed_mime_types"`

	// ThumbnailSizes are the square bounds (px) pre-generated for image
	// uploads. Thumbnails are aspect-preserving and never upscaled.
	ThumbnailSizes []int `yaml:"thumbnail_sizes"`
}

func (c *Config) normalize() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if len(c.AllowedMimeTypes) == 0 {
		c.AllowedMimeTypes = defaultAllowedMimeTypes()
	}
	if len(c.ThumbnailSizes) == 0 {
		c.ThumbnailSizes = []int{150, 300, 600}
	}
}

func defaultAllowedMimeTypes() []string {
	return []string{
		"image/",
		"video/",
		"audio/",
		"text/",
		mediameta.ContentTypePDF,
		mediameta.ContentTypeRTF,
		mediameta.ContentTypeJSON,
		mediameta.ContentTypeXML,
		mediameta.ContentTypeJS,
		mediameta.ContentTypeDOC,
		mediameta.ContentTypeDOCX,
		mediameta.ContentTypeXLS,
		mediameta.ContentTypeXLSX,
		mediameta.ContentTypePPT,
		mediameta.ContentTypePPTX,
		mediameta.ContentTypeODT,
		mediameta.ContentTypeODS,
		mediameta.ContentTypeODP,
		mediameta.ContentTypeZIP,
		mediameta.ContentTypeTAR,
		mediameta.ContentTypeGZIP,
		mediameta.ContentType7Z,
		mediameta.ContentTypeRAR,
		mediameta.ContentTypeOctetStream,
	}
}
