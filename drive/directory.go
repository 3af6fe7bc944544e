package drive

import (
	"fmt"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// CreateDirectory creates a virtual directory under parent (empty = root).
// Parent existence is deliberately not validated: the root-implicit tree
// tolerates dangling parents as orphaned but harmless.
func (s *Service) CreateDirectory(name, parent string) (types.DirectoryRecord, error) {
	if name == "" {
		return types.DirectoryRecord{}, fmt.Errorf("%w: directory name is required", types.ErrInvalidInput)
	}
	record := types.DirectoryRecord{
		ID:        tool.GenerateID("dir_"),
		Name:      name,
		Parent:    parent,
		CreatedAt: now(),
	}
	err := s.store.Update(func(doc *types.Document) error {
		doc.Directories = append(doc.Directories, record)
		return nil
	})
	if err != nil {
		return types.DirectoryRecord{}, err
	}
	return record, nil
}

// Directories returns every directory record.
func (s *Service) Directories() []types.DirectoryRecord {
	return s.store.Load().Directories
}

// ListChildren returns the active files and directories directly under
// parent (empty string denotes the root).
func (s *Service) ListChildren(parent string) ([]types.FileRecord, []types.DirectoryRecord) {
	doc := s.store.Load()
	files := []types.FileRecord{}
	dirs := []types.DirectoryRecord{}
	for _, f := range doc.Files {
		if f.Directory == parent {
			files = append(files, f)
		}
	}
	for _, d := range doc.Directories {
		if d.Parent == parent {
			dirs = append(dirs, d)
		}
	}
	return files, dirs
}

// DescendantSet computes the ids of directoryID and every directory below
// it, by breadth-first traversal over the parent relation. Membership in the
// result set guards the worklist, so traversal terminates even if the stored
// tree contains a cycle.
func DescendantSet(directoryID string, directories []types.DirectoryRecord) map[string]bool {
	toDelete := map[string]bool{directoryID: true}
	queue := []string{directoryID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dir := range directories {
			if dir.Parent == current && !toDelete[dir.ID] {
				toDelete[dir.ID] = true
				queue = append(queue, dir.ID)
			}
		}
	}
	return toDelete
}

// DeleteDirectory removes a directory, all descendant directories and all
// files attached to any of them, as one batch. Blobs of the removed files
// are deleted from disk; directory delete does not route through the trash.
func (s *Service) DeleteDirectory(directoryID string) error {
	if directoryID == "" {
		return fmt.Errorf("%w: directory id is required", types.ErrInvalidInput)
	}
	return s.store.Update(func(doc *types.Document) error {
		found := false
		for _, dir := range doc.Directories {
			if dir.ID == directoryID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: directory %s", types.ErrNotFound, directoryID)
		}

		toDelete := DescendantSet(directoryID, doc.Directories)

		keptDirs := doc.Directories[:0]
		for _, dir := range doc.Directories {
			if !toDelete[dir.ID] {
				keptDirs = append(keptDirs, dir)
			}
		}
		doc.Directories = keptDirs

		keptFiles := []types.FileRecord{}
		for _, f := range doc.Files {
			if toDelete[f.Directory] {
				s.removeBlob(f.LocalPath)
				continue
			}
			keptFiles = append(keptFiles, f)
		}
		doc.Files = keptFiles
		return nil
	})
}
