package filestore

// Error codes returned by the file store.
const (
	CodeFileTooLarge           = "FILE_TOO_LARGE"
	CodeUnsupportedContentType = "UNSUPPORTED_CONTENT_TYPE"
)
