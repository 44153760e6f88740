// Package mediameta inspects stored content to produce type classification,
// technical metadata and integrity hashes.
package mediameta

import (
	"image"
	"image/color"
	"io"
	"os"
	"strings"

	// Register decoders for the formats the store accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/code19m/errx"
)

// Metadata keys produced by Extract.
const (
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyFormat      = "format"
	KeyHasAlpha    = "has_alpha"
	KeyChannels    = "channels"
	KeyColorSpace  = "color_space"
	KeyDensity     = "pixel_density"
	KeyOrientation = "orientation"
	KeySizeBytes   = "size_bytes"
	KeyPageCount   = "page_count"
	KeyTitle       = "title"
	KeyAuthor      = "author"
)

// Extractor inspects file content. It is stateless and safe for concurrent use.
type Extractor struct{}

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract produces technical metadata for a file on disk.
//
// Images get dimensions, format and color information. Documents get their
// byte size only; page count, title and author stay nil because document
// parsing belongs to the external document-processing collaborator.
func (e *Extractor) Extract(path, mimeType string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer f.Close()

	if strings.HasPrefix(mimeType, "image/") {
		return e.ExtractImage(f)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return map[string]any{
		KeySizeBytes: stat.Size(),
		KeyPageCount: nil,
		KeyTitle:     nil,
		KeyAuthor:    nil,
	}, nil
}

// ExtractImage produces technical metadata for image content read from r.
// Only the image header is decoded; pixel data is never loaded.
func (e *Extractor) ExtractImage(r io.Reader) (map[string]any, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	hasAlpha, channels, colorSpace := describeColorModel(cfg.ColorModel)

	return map[string]any{
		KeyWidth:      cfg.Width,
		KeyHeight:     cfg.Height,
		KeyFormat:     format,
		KeyHasAlpha:   hasAlpha,
		KeyChannels:   channels,
		KeyColorSpace: colorSpace,
		// EXIF parsing is not implemented; density and orientation stay unknown.
		KeyDensity:     nil,
		KeyOrientation: nil,
	}, nil
}

func describeColorModel(model color.Model) (hasAlpha bool, channels int, colorSpace string) {
	switch model {
	case color.NRGBAModel, color.RGBAModel, color.NRGBA64Model, color.RGBA64Model:
		return true, 4, "srgb"
	case color.GrayModel, color.Gray16Model:
		return false, 1, "gray"
	case color.CMYKModel:
		return false, 4, "cmyk"
	case color.YCbCrModel:
		return false, 3, "ycbcr"
	default:
		if _, ok := model.(color.Palette); ok {
			return true, 1, "indexed"
		}
		return false, 3, "srgb"
	}
}
