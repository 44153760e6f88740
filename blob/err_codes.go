package blob

// Error codes for blob storage operations.
const (
	// CodeFileNotFound is returned when a file does not exist at the specified path.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeInvalidPath is returned when a path escapes the storage root or
	// is otherwise malformed.
	CodeInvalidPath = "INVALID_STORAGE_PATH"
)
