package drive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/types"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	blobDir := filepath.Join(dir, "cc")
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		t.Fatalf("Failed to create blob dir: %v", err)
	}
	return NewService(st, blobDir), blobDir
}

func addTestFile(t *testing.T, s *Service, id, directory string) string {
	t.Helper()
	blobName := id + ".bin"
	if err := os.WriteFile(filepath.Join(s.BlobDir(), blobName), []byte("blob"), 0o644); err != nil {
		t.Fatalf("Failed to write blob: %v", err)
	}
	record := NewFileRecord(id+".bin", 4, blobName, "", "")
	record.ID = id
	record.Directory = directory
	if err := s.AddFile(record); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	return blobName
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	addTestFile(t, s, "f1", "")

	if err := s.SoftDelete("f1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if len(s.List()) != 0 {
		t.Error("Soft-deleted file must leave the active list")
	}
	trash := s.Trash()
	if len(trash) != 1 || trash[0].ID != "f1" {
		t.Fatalf("Expected f1 in trash, got %+v", trash)
	}
	if trash[0].DeletedAt == "" {
		t.Error("Trashed file must carry a deletion timestamp")
	}

	if err := s.Restore("f1"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	files := s.List()
	if len(files) != 1 || files[0].ID != "f1" {
		t.Fatalf("Expected f1 restored, got %+v", files)
	}
	if files[0].DeletedAt != "" {
		t.Error("Restored file must have deletion timestamp cleared")
	}
	if len(s.Trash()) != 0 {
		t.Error("Restored file must leave the trash")
	}
}

func TestSoftDeleteNotFound(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.SoftDelete("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPurgeRemovesBlob(t *testing.T) {
	s, blobDir := newTestService(t)
	blobName := addTestFile(t, s, "f1", "")

	if err := s.SoftDelete("f1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := s.Purge("f1"); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if len(s.Trash()) != 0 {
		t.Error("Purged file must leave the trash")
	}
	if _, err := os.Stat(filepath.Join(blobDir, blobName)); !os.IsNotExist(err) {
		t.Error("Purge must delete the blob")
	}
}

func TestPurgeMissingBlobIsNotAnError(t *testing.T) {
	s, blobDir := newTestService(t)
	blobName := addTestFile(t, s, "f1", "")

	if err := s.SoftDelete("f1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := os.Remove(filepath.Join(blobDir, blobName)); err != nil {
		t.Fatalf("Failed to pre-delete blob: %v", err)
	}
	if err := s.Purge("f1"); err != nil {
		t.Errorf("Purge with missing blob should succeed, got %v", err)
	}
}

func TestEmptyTrash(t *testing.T) {
	s, _ := newTestService(t)
	addTestFile(t, s, "f1", "")
	addTestFile(t, s, "f2", "")
	if err := s.SoftDelete("f1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := s.SoftDelete("f2"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	if err := s.EmptyTrash(); err != nil {
		t.Fatalf("EmptyTrash failed: %v", err)
	}
	if len(s.Trash()) != 0 {
		t.Error("EmptyTrash must clear the trash list")
	}
}

func TestDirectoryCascadeDelete(t *testing.T) {
	s, blobDir := newTestService(t)

	// A > B > C plus a sibling directory that must survive.
	a, err := s.CreateDirectory("A", "")
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	b, err := s.CreateDirectory("B", a.ID)
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	c, err := s.CreateDirectory("C", b.ID)
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	sibling, err := s.CreateDirectory("S", "")
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}

	blobA := addTestFile(t, s, "fa", a.ID)
	blobC := addTestFile(t, s, "fc", c.ID)
	addTestFile(t, s, "fs", sibling.ID)

	if err := s.DeleteDirectory(a.ID); err != nil {
		t.Fatalf("DeleteDirectory failed: %v", err)
	}

	dirs := s.Directories()
	if len(dirs) != 1 || dirs[0].ID != sibling.ID {
		t.Errorf("Expected only sibling directory to survive, got %+v", dirs)
	}
	files := s.List()
	if len(files) != 1 || files[0].ID != "fs" {
		t.Errorf("Expected only sibling file to survive, got %+v", files)
	}
	if _, err := os.Stat(filepath.Join(blobDir, blobA)); !os.IsNotExist(err) {
		t.Error("Cascade delete must remove blobs at the top level")
	}
	if _, err := os.Stat(filepath.Join(blobDir, blobC)); !os.IsNotExist(err) {
		t.Error("Cascade delete must remove blobs in nested directories")
	}
}

func TestDeleteDirectoryNotFound(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.DeleteDirectory("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDescendantSetTerminatesOnCycle(t *testing.T) {
	dirs := []types.DirectoryRecord{
		{ID: "a", Parent: "b"},
		{ID: "b", Parent: "a"},
	}
	set := DescendantSet("a", dirs)
	if !set["a"] || !set["b"] || len(set) != 2 {
		t.Errorf("Expected {a b}, got %v", set)
	}
}

func TestDeletePermanentVariants(t *testing.T) {
	s, _ := newTestService(t)

	addTestFile(t, s, "f1", "")
	if err := s.SoftDelete("f1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := s.DeletePermanent(Target{ID: "f1"}); err != nil {
		t.Fatalf("DeletePermanent(file) failed: %v", err)
	}
	if len(s.Trash()) != 0 {
		t.Error("File variant must purge from trash")
	}

	dir, err := s.CreateDirectory("D", "")
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	if err := s.DeletePermanent(Target{ID: dir.ID, IsDirectory: true}); err != nil {
		t.Fatalf("DeletePermanent(directory) failed: %v", err)
	}
	if len(s.Directories()) != 0 {
		t.Error("Directory variant must remove the directory")
	}
}

func TestMoveAndRenameFile(t *testing.T) {
	s, _ := newTestService(t)
	addTestFile(t, s, "f1", "")
	dir, err := s.CreateDirectory("D", "")
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}

	moved, err := s.MoveFile("f1", dir.ID)
	if err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if moved.Directory != dir.ID {
		t.Errorf("Expected directory %s, got %s", dir.ID, moved.Directory)
	}

	renamed, err := s.RenameFile("f1", "photo.png")
	if err != nil {
		t.Fatalf("RenameFile failed: %v", err)
	}
	if renamed.Name != "photo.png" {
		t.Errorf("Expected name photo.png, got %s", renamed.Name)
	}

	files, dirs := s.ListChildren(dir.ID)
	if len(files) != 1 || files[0].Name != "photo.png" {
		t.Errorf("Expected renamed file under D, got %+v", files)
	}
	if len(dirs) != 0 {
		t.Errorf("Expected no child directories, got %+v", dirs)
	}
}
