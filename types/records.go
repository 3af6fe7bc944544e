package types

// TimeLayout is the timestamp format used across all persisted records.
const TimeLayout = "2006-01-02 15:04:05"

// FileRecord represents one stored file, active or trashed.
type FileRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	Icon          string `json:"icon"`
	URL           string `json:"url"`
	DownloadURL   string `json:"download_url"`
	Sid           string `json:"sid"`
	UploadedAt    string `json:"uploaded_at"`
	DeletedAt     string `json:"deleted_at,omitempty"`
	LocalPath     string `json:"local_path"`
	Directory     string `json:"directory,omitempty"`
}

// DirectoryRecord represents one virtual directory. Parent is empty at the root.
type DirectoryRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Parent    string `json:"parent"`
	CreatedAt string `json:"created_at"`
}

// Document is the whole metadata document. Mutations are read-modify-write
// of the entire structure, never partial updates.
type Document struct {
	Files       []FileRecord      `json:"files"`
	Trash       []FileRecord      `json:"trash"`
	Directories []DirectoryRecord `json:"directories"`
}

// ShareRecord is a capability-token-scoped view over the directory tree.
// Files and Directories are the share's own copies, independent of the
// main tree after creation.
type ShareRecord struct {
	ID            string            `json:"id"`
	Token         string            `json:"token"`
	Name          string            `json:"name"`
	PasswordHash  string            `json:"password"`
	RootDirectory string            `json:"root_directory"`
	AllowDelete   bool              `json:"allow_delete"`
	AllowDownload bool              `json:"allow_download"`
	AllowPreview  bool              `json:"allow_preview"`
	AllowUpload   bool              `json:"allow_upload"`
	CreatedAt     string            `json:"created_at"`
	Files         []FileRecord      `json:"files"`
	Directories   []DirectoryRecord `json:"directories"`
}

// ShareSummary is the listing view of a share (never exposes the password hash).
type ShareSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Token            string `json:"token"`
	RootDirectory    string `json:"root_directory"`
	HasPassword      bool   `json:"has_password"`
	AllowDelete      bool   `json:"allow_delete"`
	AllowDownload    bool   `json:"allow_download"`
	AllowPreview     bool   `json:"allow_preview"`
	AllowUpload      bool   `json:"allow_upload"`
	CreatedAt        string `json:"created_at"`
	FilesCount       int    `json:"files_count"`
	DirectoriesCount int    `json:"directories_count"`
}

// ChunkSessionInfo is the per-upload session record stored next to the
// staged chunk files. UploadedChunks holds distinct 0-based indices.
type ChunkSessionInfo struct {
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	TotalChunks    int    `json:"total_chunks"`
	UploadedChunks []int  `json:"uploaded_chunks"`
}

// StorageInfo reports disk usage of the blob directory.
type StorageInfo struct {
	Total          uint64  `json:"total"`
	Used           uint64  `json:"used"`
	Free           uint64  `json:"free"`
	TotalFormatted string  `json:"total_formatted"`
	UsedFormatted  string  `json:"used_formatted"`
	FreeFormatted  string  `json:"free_formatted"`
	UsagePercent   float64 `json:"usage_percent"`
}

// DriveEvent is broadcast to websocket subscribers on drive mutations.
type DriveEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}
