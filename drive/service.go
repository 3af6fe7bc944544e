package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// Service implements file, directory tree and trash operations over the
// metadata store. All mutations go through store.Update so the whole
// document is rewritten atomically with respect to in-process writers.
type Service struct {
	store   *store.Store
	blobDir string
}

// NewService creates a drive service writing blobs under blobDir.
func NewService(st *store.Store, blobDir string) *Service {
	return &Service{store: st, blobDir: blobDir}
}

// BlobDir returns the local blob directory.
func (s *Service) BlobDir() string {
	return s.blobDir
}

func now() string {
	return time.Now().Format(types.TimeLayout)
}

// NewFileRecord builds the metadata record for a finalized blob. Locator and
// download URL come from the blob sink when it succeeded, otherwise both
// point at the locally staged copy.
func NewFileRecord(name string, size int64, localName, downloadURL, sid string) types.FileRecord {
	localURL := "data/cc/" + localName
	if downloadURL == "" {
		downloadURL = localURL
	}
	if sid == "" {
		sid = tool.GenerateID("")
	}
	return types.FileRecord{
		ID:            tool.GenerateID(""),
		Name:          name,
		Size:          size,
		SizeFormatted: tool.FormatFileSize(size),
		Icon:          tool.FileIcon(name),
		URL:           localURL,
		DownloadURL:   downloadURL,
		Sid:           sid,
		UploadedAt:    now(),
		LocalPath:     localName,
	}
}

// AddFile appends a finalized file record to the active list.
func (s *Service) AddFile(record types.FileRecord) error {
	return s.store.Update(func(doc *types.Document) error {
		doc.Files = append(doc.Files, record)
		return nil
	})
}

// List returns all active files.
func (s *Service) List() []types.FileRecord {
	return s.store.Load().Files
}

// Trash returns all trashed files.
func (s *Service) Trash() []types.FileRecord {
	return s.store.Load().Trash
}

// GetLink resolves the download link of an active file.
func (s *Service) GetLink(fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	doc := s.store.Load()
	for _, f := range doc.Files {
		if f.ID == fileID {
			return f.URL, nil
		}
	}
	return "", fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
}

// SoftDelete stamps the deleted timestamp and moves the record from the
// active list to the trash. The id stays stable across the transition.
func (s *Service) SoftDelete(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	return s.store.Update(func(doc *types.Document) error {
		for i, f := range doc.Files {
			if f.ID == fileID {
				f.DeletedAt = now()
				doc.Trash = append(doc.Trash, f)
				doc.Files = append(doc.Files[:i], doc.Files[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
	})
}

// Restore clears the deleted timestamp and moves the record back to the
// active list.
func (s *Service) Restore(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	return s.store.Update(func(doc *types.Document) error {
		for i, f := range doc.Trash {
			if f.ID == fileID {
				f.DeletedAt = ""
				doc.Files = append(doc.Files, f)
				doc.Trash = append(doc.Trash[:i], doc.Trash[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: file %s not in trash", types.ErrNotFound, fileID)
	})
}

// Purge permanently removes a trashed file and deletes its blob. A blob that
// is already gone is not an error.
func (s *Service) Purge(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	return s.store.Update(func(doc *types.Document) error {
		for i, f := range doc.Trash {
			if f.ID == fileID {
				s.removeBlob(f.LocalPath)
				doc.Trash = append(doc.Trash[:i], doc.Trash[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: file %s not in trash", types.ErrNotFound, fileID)
	})
}

// EmptyTrash clears the whole trash list. Blobs are kept on disk, matching
// the historical behavior; the orphan count is logged so the leak is visible.
func (s *Service) EmptyTrash() error {
	return s.store.Update(func(doc *types.Document) error {
		if len(doc.Trash) > 0 {
			tool.DefaultLogger.Warnf("Emptying trash drops %d records without deleting their blobs", len(doc.Trash))
		}
		doc.Trash = []types.FileRecord{}
		return nil
	})
}

// Target is the resolved subject of a permanent delete.
type Target struct {
	ID          string
	IsDirectory bool
}

// DeletePermanent removes either a trashed file (with its blob) or a whole
// directory subtree, depending on the target variant.
func (s *Service) DeletePermanent(target Target) error {
	if target.ID == "" {
		return fmt.Errorf("%w: id is required", types.ErrInvalidInput)
	}
	if target.IsDirectory {
		return s.DeleteDirectory(target.ID)
	}
	return s.Purge(target.ID)
}

// MoveFile reassigns an active file to a directory (empty = root). The
// destination directory is not validated; a dangling reference is orphaned
// but harmless.
func (s *Service) MoveFile(fileID, directory string) (types.FileRecord, error) {
	if fileID == "" {
		return types.FileRecord{}, fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	var moved types.FileRecord
	err := s.store.Update(func(doc *types.Document) error {
		for i, f := range doc.Files {
			if f.ID == fileID {
				doc.Files[i].Directory = directory
				moved = doc.Files[i]
				return nil
			}
		}
		return fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
	})
	return moved, err
}

// RenameFile renames an active file.
func (s *Service) RenameFile(fileID, newName string) (types.FileRecord, error) {
	if fileID == "" {
		return types.FileRecord{}, fmt.Errorf("%w: file id is required", types.ErrInvalidInput)
	}
	if newName == "" {
		return types.FileRecord{}, fmt.Errorf("%w: new name is required", types.ErrInvalidInput)
	}
	var renamed types.FileRecord
	err := s.store.Update(func(doc *types.Document) error {
		for i, f := range doc.Files {
			if f.ID == fileID {
				doc.Files[i].Name = newName
				doc.Files[i].Icon = tool.FileIcon(newName)
				renamed = doc.Files[i]
				return nil
			}
		}
		return fmt.Errorf("%w: file %s", types.ErrNotFound, fileID)
	})
	return renamed, err
}

func (s *Service) removeBlob(localPath string) {
	if localPath == "" {
		return
	}
	path := filepath.Join(s.blobDir, filepath.Base(localPath))
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			tool.DefaultLogger.Errorf("Failed to delete blob %s: %v", path, err)
		}
		return
	}
	tool.DefaultLogger.Infof("Blob permanently deleted: %s", path)
}
