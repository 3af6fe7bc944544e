package types

// FileIDRequest carries a single file id (delete, restore, get_link).
type FileIDRequest struct {
	ID string `json:"id"`
}

// DeletePermanentRequest distinguishes file and directory targets at the boundary.
type DeletePermanentRequest struct {
	ID          string `json:"id"`
	IsDirectory bool   `json:"is_directory"`
}

// MergeChunksRequest finalizes a chunked upload.
type MergeChunksRequest struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	TotalChunks int    `json:"total_chunks"`
	Directory   string `json:"directory"`
}

// CreateDirectoryRequest creates a directory under an optional parent.
type CreateDirectoryRequest struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

// DirectoryIDRequest carries a single directory id.
type DirectoryIDRequest struct {
	ID string `json:"id"`
}

// MoveFileRequest reassigns a file to a directory (empty = root).
type MoveFileRequest struct {
	FileID    string `json:"file_id"`
	Directory string `json:"directory"`
}

// RenameFileRequest renames an active file.
type RenameFileRequest struct {
	FileID  string `json:"file_id"`
	NewName string `json:"new_name"`
}

// CreateShareRequest creates a share rooted at an optional directory.
type CreateShareRequest struct {
	Name          string `json:"name"`
	Password      string `json:"password"`
	RootDirectory string `json:"root_directory"`
	AllowDelete   bool   `json:"allow_delete"`
	AllowDownload *bool  `json:"allow_download"`
	AllowPreview  *bool  `json:"allow_preview"`
	AllowUpload   bool   `json:"allow_upload"`
}

// VerifyPasswordRequest carries the candidate password for a share.
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// ShareAddFileRequest copies a global file into a share.
type ShareAddFileRequest struct {
	FileID    string `json:"file_id"`
	Directory string `json:"directory"`
}

// ShareDeleteFileRequest removes a file from a share's own list.
type ShareDeleteFileRequest struct {
	FileID string `json:"file_id"`
}

// ShareDeleteDirectoryRequest removes a directory subtree from a share.
type ShareDeleteDirectoryRequest struct {
	DirectoryID string `json:"directory_id"`
}

// SaveConfigRequest replaces the storage backend configuration.
type SaveConfigRequest struct {
	Config StorageConfig `json:"config"`
}
