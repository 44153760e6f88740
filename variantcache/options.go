package variantcache

import (
	"fmt"
	"sort"
	"strings"
)

const (
	defaultQuality = 80
	defaultFormat  = "jpeg"
)

// Options describes a requested transform of a source image.
// The zero value requests the original bytes unmodified.
type Options struct {
	// Width and Height bound the result. The source is scaled to fit
	// inside them, preserving aspect ratio and never enlarging beyond the
	// source's native dimensions. A zero value leaves that axis unbounded.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Quality is the lossy-encoding quality (1-100). Defaults to 80.
	Quality int `json:"quality"`

	// Format is the output encoding: "jpeg", "png" or "gif". Defaults to "jpeg".
	Format string `json:"format"`
}

// normalize applies defaults and clamps.
func (o Options) normalize() Options {
	if o.Width < 0 {
		o.Width = 0
	}
	if o.Height < 0 {
		o.Height = 0
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = defaultQuality
	}
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	switch o.Format {
	case "jpg", "":
		o.Format = defaultFormat
	}
	return o
}

// passthrough reports whether the request leaves the source unmodified.
func (o Options) passthrough() bool {
	return o.Width == 0 && o.Height == 0
}

// canonical renders the option set as a deterministic sorted-key string,
// so identical requests map to identical cache keys regardless of how the
// caller populated them.
func (o Options) canonical() string {
	parts := []string{
		fmt.Sprintf("format=%s", o.Format),
		fmt.Sprintf("height=%d", o.Height),
		fmt.Sprintf("quality=%d", o.Quality),
		fmt.Sprintf("width=%d", o.Width),
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
