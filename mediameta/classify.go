package mediameta

import (
	"mime"
	"path/filepath"
	"strings"
)

// Category is the coarse type bucket a file is classified into.
type Category string

const (
	CategoryImage        Category = "image"
	CategoryVideo        Category = "video"
	CategoryAudio        Category = "audio"
	CategoryText         Category = "text"
	CategoryDocument     Category = "document"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryPresentation Category = "presentation"
	CategoryArchive      Category = "archive"
	CategoryCode         Category = "code"
	CategoryUnknown      Category = "unknown"
)

// TypeInfo is the result of classifying a file.
type TypeInfo struct {
	MimeType  string
	Extension string
	Category  Category
}

// categoryRules is the fixed decision table matched against the MIME type,
// first rule wins. Substring matching keeps vendor-prefixed office types
// (e.g. "vnd.openxmlformats-...spreadsheetml...") in the right bucket.
var categoryRules = []struct {
	substr   string
	category Category
}{
	{"image/", CategoryImage},
	{"video/", CategoryVideo},
	{"audio/", CategoryAudio},
	{"spreadsheetml", CategorySpreadsheet},
	{"ms-excel", CategorySpreadsheet},
	{"opendocument.spreadsheet", CategorySpreadsheet},
	{"csv", CategorySpreadsheet},
	{"presentationml", CategoryPresentation},
	{"ms-powerpoint", CategoryPresentation},
	{"opendocument.presentation", CategoryPresentation},
	{"pdf", CategoryDocument},
	{"msword", CategoryDocument},
	{"wordprocessingml", CategoryDocument},
	{"opendocument.text", CategoryDocument},
	{"rtf", CategoryDocument},
	{"zip", CategoryArchive},
	{"x-tar", CategoryArchive},
	{"gzip", CategoryArchive},
	{"x-7z-compressed", CategoryArchive},
	{"vnd.rar", CategoryArchive},
	{"javascript", CategoryCode},
	{"json", CategoryCode},
	{"xml", CategoryCode},
	{"html", CategoryCode},
	{"css", CategoryCode},
	{"text/", CategoryText},
}

// codeExtensions is the extension allow-list used as a fallback for source
// files whose MIME type carries no useful signal.
var codeExtensions = map[string]bool{
	".go":    true,
	".py":    true,
	".js":    true,
	".ts":    true,
	".java":  true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".rs":    true,
	".rb":    true,
	".php":   true,
	".sh":    true,
	".sql":   true,
	".yaml":  true,
	".yml":   true,
	".toml":  true,
	".swift": true,
	".kt":    true,
}

// Classify determines the MIME type, extension and category for a file.
//
// The declared MIME type wins when present; otherwise the type is resolved
// from the extension, falling back to application/octet-stream. The
// category comes from the mime decision table first, then the source-code
// extension allow-list.
func (e *Extractor) Classify(path, declaredMimeType string) TypeInfo {
	ext := strings.ToLower(filepath.Ext(path))

	mimeType := strings.ToLower(strings.TrimSpace(declaredMimeType))
	if mimeType == "" {
		mimeType = resolveByExtension(ext)
	}

	return TypeInfo{
		MimeType:  mimeType,
		Extension: ext,
		Category:  categorize(mimeType, ext),
	}
}

func categorize(mimeType, ext string) Category {
	for _, rule := range categoryRules {
		if strings.Contains(mimeType, rule.substr) {
			return rule.category
		}
	}
	if codeExtensions[ext] {
		return CategoryCode
	}
	return CategoryUnknown
}

func resolveByExtension(ext string) string {
	if ext == "" {
		return ContentTypeOctetStream
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		// Strip parameters like "; charset=utf-8".
		if idx := strings.Index(mimeType, ";"); idx >= 0 {
			mimeType = mimeType[:idx]
		}
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return ContentTypeOctetStream
}
