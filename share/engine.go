package share

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rutno/clouddrive-go/drive"
	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// directoryIDPattern is the allow-list for directory ids arriving on a share
// token. String filtering alone cannot catch same-tree-but-out-of-scope
// references, so Engine always re-validates structurally against the share
// root as well.
var directoryIDPattern = regexp.MustCompile(`^[\w\-/]+$`)

// Engine implements token-scoped, permission-gated views over the directory
// tree. A share's file and directory lists are copies, independent of the
// main tree after creation.
type Engine struct {
	store  *store.Store
	access *AccessLog
}

// RequestInfo carries audit fields of the calling request.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// NewEngine creates a share engine writing its audit trail to accessLog.
func NewEngine(st *store.Store, accessLog *AccessLog) *Engine {
	return &Engine{store: st, access: accessLog}
}

func now() string {
	return time.Now().Format(types.TimeLayout)
}

// Create registers a new share. The root directory, when given, must exist
// in the global tree. The password is stored as a bcrypt hash, never
// plaintext, and the capability token is 128 bits of hex-encoded randomness
// distinct from the share id.
func (e *Engine) Create(req types.CreateShareRequest, info RequestInfo) (types.ShareRecord, error) {
	if req.Name == "" {
		return types.ShareRecord{}, fmt.Errorf("%w: share name is required", types.ErrInvalidInput)
	}

	if req.RootDirectory != "" {
		doc := e.store.Load()
		exists := false
		for _, dir := range doc.Directories {
			if dir.ID == req.RootDirectory {
				exists = true
				break
			}
		}
		if !exists {
			return types.ShareRecord{}, fmt.Errorf("%w: root directory %s does not exist", types.ErrInvalidInput, req.RootDirectory)
		}
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return types.ShareRecord{}, fmt.Errorf("%w: hash password: %v", types.ErrIOFailure, err)
		}
		passwordHash = string(hash)
	}

	allowDownload := true
	if req.AllowDownload != nil {
		allowDownload = *req.AllowDownload
	}
	allowPreview := true
	if req.AllowPreview != nil {
		allowPreview = *req.AllowPreview
	}

	record := types.ShareRecord{
		ID:            tool.GenerateID("share_"),
		Token:         tool.GenerateShareToken(),
		Name:          req.Name,
		PasswordHash:  passwordHash,
		RootDirectory: req.RootDirectory,
		AllowDelete:   req.AllowDelete,
		AllowDownload: allowDownload,
		AllowPreview:  allowPreview,
		AllowUpload:   req.AllowUpload,
		CreatedAt:     now(),
		Files:         []types.FileRecord{},
		Directories:   []types.DirectoryRecord{},
	}

	err := e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		shares[record.ID] = record
		return nil
	})
	if err != nil {
		return types.ShareRecord{}, err
	}

	e.access.Log(record.Token, "create_share", info.IP, info.UserAgent, map[string]any{
		"share_id":       record.ID,
		"root_directory": record.RootDirectory,
		"permissions": map[string]bool{
			"delete":   record.AllowDelete,
			"download": record.AllowDownload,
			"preview":  record.AllowPreview,
			"upload":   record.AllowUpload,
		},
	})
	return record, nil
}

// Shares returns summaries of every share, without password hashes.
func (e *Engine) Shares() []types.ShareSummary {
	shares := e.store.LoadShares()
	list := make([]types.ShareSummary, 0, len(shares))
	for id, s := range shares {
		list = append(list, types.ShareSummary{
			ID:               id,
			Name:             s.Name,
			Token:            s.Token,
			RootDirectory:    s.RootDirectory,
			HasPassword:      s.PasswordHash != "",
			AllowDelete:      s.AllowDelete,
			AllowDownload:    s.AllowDownload,
			AllowPreview:     s.AllowPreview,
			AllowUpload:      s.AllowUpload,
			CreatedAt:        s.CreatedAt,
			FilesCount:       len(s.Files),
			DirectoriesCount: len(s.Directories),
		})
	}
	return list
}

// Resolve looks a share up by its capability token.
func (e *Engine) Resolve(token string, info RequestInfo) (types.ShareRecord, error) {
	if token == "" {
		return types.ShareRecord{}, fmt.Errorf("%w: token is required", types.ErrInvalidInput)
	}
	shares := e.store.LoadShares()
	for _, s := range shares {
		if s.Token == token {
			return s, nil
		}
	}
	e.access.Log(token, "access_denied", info.IP, info.UserAgent, map[string]any{"reason": "share_not_found"})
	return types.ShareRecord{}, fmt.Errorf("%w: share", types.ErrNotFound)
}

// RootDirectoryName resolves the display name of a share's root directory in
// the global tree. Empty when the share is rooted at the whole tree.
func (e *Engine) RootDirectoryName(s types.ShareRecord) string {
	if s.RootDirectory == "" {
		return ""
	}
	for _, dir := range e.store.Load().Directories {
		if dir.ID == s.RootDirectory {
			return dir.Name
		}
	}
	return ""
}

// VerifyPassword reports whether the candidate unlocks the share. Shares
// without a password verify trivially. The check is stateless; it gates the
// client UI, not subsequent structural permission checks.
func (e *Engine) VerifyPassword(token, password string, info RequestInfo) (bool, error) {
	s, err := e.Resolve(token, info)
	if err != nil {
		return false, err
	}
	if s.PasswordHash == "" {
		return true, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil, nil
}

// validateDirectoryID rejects path-traversal-suspicious directory ids before
// any tree lookup happens.
func validateDirectoryID(directoryID string) bool {
	if directoryID == "" {
		return true
	}
	if strings.Contains(directoryID, "..") ||
		strings.Contains(directoryID, "./") ||
		strings.Contains(directoryID, `\`) {
		return false
	}
	return directoryIDPattern.MatchString(directoryID)
}

// inAllowedPath walks the ancestor chain of directoryID through the global
// tree and reports whether it reaches rootDirectoryID. The visited set
// bounds the walk on cyclic data.
func inAllowedPath(directoryID, rootDirectoryID string, directories []types.DirectoryRecord) bool {
	if rootDirectoryID == "" {
		return true
	}
	current := directoryID
	visited := map[string]bool{}
	for current != "" && !visited[current] {
		visited[current] = true
		if current == rootDirectoryID {
			return true
		}
		found := false
		for _, dir := range directories {
			if dir.ID == current {
				current = dir.Parent
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return false
}

// ListFiles returns the global files and directories visible through the
// share at directoryID. An empty directoryID lists the share's root. Every
// call, success or rejection, lands in the access log.
func (e *Engine) ListFiles(token, directoryID string, info RequestInfo) ([]types.FileRecord, []types.DirectoryRecord, error) {
	if !validateDirectoryID(directoryID) {
		e.access.Log(token, "path_traversal_attempt", info.IP, info.UserAgent, map[string]any{
			"directory": directoryID,
			"reason":    "invalid_path_characters",
		})
		return nil, nil, fmt.Errorf("%w: directory id %q", types.ErrInvalidPath, directoryID)
	}

	s, err := e.Resolve(token, info)
	if err != nil {
		return nil, nil, err
	}

	doc := e.store.Load()
	if directoryID != "" && !inAllowedPath(directoryID, s.RootDirectory, doc.Directories) {
		e.access.Log(token, "path_traversal_attempt", info.IP, info.UserAgent, map[string]any{
			"requested_directory": directoryID,
			"root_directory":      s.RootDirectory,
			"reason":              "directory_not_in_allowed_path",
		})
		return nil, nil, fmt.Errorf("%w: directory %s is outside the share", types.ErrInvalidPath, directoryID)
	}

	target := directoryID
	if target == "" {
		target = s.RootDirectory
	}

	files := []types.FileRecord{}
	dirs := []types.DirectoryRecord{}
	for _, f := range doc.Files {
		if f.Directory == target {
			files = append(files, f)
		}
	}
	for _, d := range doc.Directories {
		if d.Parent == target {
			dirs = append(dirs, d)
		}
	}

	e.access.Log(token, "list_files", info.IP, info.UserAgent, map[string]any{
		"directory":         directoryID,
		"files_count":       len(files),
		"directories_count": len(dirs),
	})
	return files, dirs, nil
}

// AddFile copies the public fields of a global file record into the share's
// own file list, tagged with directoryID. The copy is independent of the
// origin from then on. Deliberately not gated on AllowUpload: upload
// completion always calls it, the flag gates upload initiation at the caller.
func (e *Engine) AddFile(token, fileID, directoryID string, info RequestInfo) (types.FileRecord, error) {
	if fileID == "" {
		return types.FileRecord{}, fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	s, err := e.Resolve(token, info)
	if err != nil {
		return types.FileRecord{}, err
	}

	doc := e.store.Load()
	var origin *types.FileRecord
	for i := range doc.Files {
		if doc.Files[i].ID == fileID {
			origin = &doc.Files[i]
			break
		}
	}
	if origin == nil {
		return types.FileRecord{}, fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
	}

	copied := types.FileRecord{
		ID:            origin.ID,
		Name:          origin.Name,
		Size:          origin.Size,
		SizeFormatted: origin.SizeFormatted,
		Icon:          origin.Icon,
		URL:           origin.URL,
		DownloadURL:   origin.DownloadURL,
		UploadedAt:    origin.UploadedAt,
		Directory:     directoryID,
	}

	err = e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		rec, ok := shares[s.ID]
		if !ok {
			return fmt.Errorf("%w: share %s", types.ErrNotFound, s.ID)
		}
		rec.Files = append(rec.Files, copied)
		shares[s.ID] = rec
		return nil
	})
	if err != nil {
		return types.FileRecord{}, err
	}

	e.access.Log(token, "add_file", info.IP, info.UserAgent, map[string]any{
		"file_id":   fileID,
		"directory": directoryID,
	})
	return copied, nil
}

// CreateDirectory appends a directory to the share's own tree. Its id space
// is independent from the global tree.
func (e *Engine) CreateDirectory(token, name, parent string, info RequestInfo) (types.DirectoryRecord, error) {
	if name == "" {
		return types.DirectoryRecord{}, fmt.Errorf("%w: directory name is required", types.ErrInvalidInput)
	}
	s, err := e.Resolve(token, info)
	if err != nil {
		return types.DirectoryRecord{}, err
	}

	record := types.DirectoryRecord{
		ID:        tool.GenerateID("dir_"),
		Name:      name,
		Parent:    parent,
		CreatedAt: now(),
	}
	err = e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		rec, ok := shares[s.ID]
		if !ok {
			return fmt.Errorf("%w: share %s", types.ErrNotFound, s.ID)
		}
		rec.Directories = append(rec.Directories, record)
		shares[s.ID] = rec
		return nil
	})
	if err != nil {
		return types.DirectoryRecord{}, err
	}

	e.access.Log(token, "create_directory", info.IP, info.UserAgent, map[string]any{
		"directory_id": record.ID,
		"parent":       parent,
	})
	return record, nil
}

// DeleteFile removes a file from the share's own list. Requires the
// AllowDelete flag; the global original is never touched.
func (e *Engine) DeleteFile(token, fileID string, info RequestInfo) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	s, err := e.Resolve(token, info)
	if err != nil {
		return err
	}
	if !s.AllowDelete {
		e.access.Log(token, "permission_denied", info.IP, info.UserAgent, map[string]any{
			"action":  "delete_file",
			"file_id": fileID,
			"reason":  "delete_not_allowed",
		})
		return fmt.Errorf("%w: share does not allow deleting files", types.ErrForbidden)
	}

	err = e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		rec, ok := shares[s.ID]
		if !ok {
			return fmt.Errorf("%w: share %s", types.ErrNotFound, s.ID)
		}
		for i, f := range rec.Files {
			if f.ID == fileID {
				rec.Files = append(rec.Files[:i], rec.Files[i+1:]...)
				shares[s.ID] = rec
				return nil
			}
		}
		e.access.Log(token, "file_not_found", info.IP, info.UserAgent, map[string]any{"file_id": fileID})
		return fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
	})
	if err != nil {
		return err
	}

	e.access.Log(token, "delete_file", info.IP, info.UserAgent, map[string]any{"file_id": fileID})
	return nil
}

// DeleteDirectory removes a directory subtree from the share's own copies,
// using the same cascade as the global tree but scoped to the share.
// Requires AllowDelete and the path-containment check against the share root.
func (e *Engine) DeleteDirectory(token, directoryID string, info RequestInfo) error {
	if directoryID == "" {
		return fmt.Errorf("%w: directory id is required", types.ErrInvalidInput)
	}
	s, err := e.Resolve(token, info)
	if err != nil {
		return err
	}
	if !s.AllowDelete {
		e.access.Log(token, "permission_denied", info.IP, info.UserAgent, map[string]any{
			"action":       "delete_directory",
			"directory_id": directoryID,
			"reason":       "delete_not_allowed",
		})
		return fmt.Errorf("%w: share does not allow deleting directories", types.ErrForbidden)
	}

	doc := e.store.Load()
	if !validateDirectoryID(directoryID) || !inAllowedPath(directoryID, s.RootDirectory, doc.Directories) {
		e.access.Log(token, "path_traversal_attempt", info.IP, info.UserAgent, map[string]any{
			"directory_id":   directoryID,
			"root_directory": s.RootDirectory,
			"reason":         "directory_not_in_allowed_path",
		})
		return fmt.Errorf("%w: directory %s is outside the share", types.ErrInvalidPath, directoryID)
	}

	deleted := 0
	err = e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		rec, ok := shares[s.ID]
		if !ok {
			return fmt.Errorf("%w: share %s", types.ErrNotFound, s.ID)
		}
		found := false
		for _, dir := range rec.Directories {
			if dir.ID == directoryID {
				found = true
				break
			}
		}
		if !found {
			e.access.Log(token, "directory_not_found", info.IP, info.UserAgent, map[string]any{"directory_id": directoryID})
			return fmt.Errorf("%w: directory %s", types.ErrNotFound, directoryID)
		}

		toDelete := drive.DescendantSet(directoryID, rec.Directories)
		deleted = len(toDelete)

		keptDirs := []types.DirectoryRecord{}
		for _, dir := range rec.Directories {
			if !toDelete[dir.ID] {
				keptDirs = append(keptDirs, dir)
			}
		}
		rec.Directories = keptDirs

		keptFiles := []types.FileRecord{}
		for _, f := range rec.Files {
			if !toDelete[f.Directory] {
				keptFiles = append(keptFiles, f)
			}
		}
		rec.Files = keptFiles

		shares[s.ID] = rec
		return nil
	})
	if err != nil {
		return err
	}

	e.access.Log(token, "delete_directory", info.IP, info.UserAgent, map[string]any{
		"directory_id":  directoryID,
		"deleted_count": deleted,
	})
	return nil
}

// DeleteShare removes a share record entirely, by share id (not token).
func (e *Engine) DeleteShare(shareID string) error {
	if shareID == "" {
		return fmt.Errorf("%w: share id is required", types.ErrInvalidInput)
	}
	return e.store.UpdateShares(func(shares map[string]types.ShareRecord) error {
		if _, ok := shares[shareID]; !ok {
			return fmt.Errorf("%w: share %s", types.ErrNotFound, shareID)
		}
		delete(shares, shareID)
		return nil
	})
}
