package catalog

// Error codes for catalog operations.
const (
	// CodeFileNotFound is returned when no record exists for the given id and owner.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeFolderNotFound is returned when no folder exists for the given id and owner.
	CodeFolderNotFound = "FOLDER_NOT_FOUND"

	// CodeFolderExists is returned when creating a folder whose name already
	// exists under the same parent.
	CodeFolderExists = "FOLDER_ALREADY_EXISTS"
)
