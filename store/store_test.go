package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rutno/clouddrive-go/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, dir
}

func TestLoadMissingDocument(t *testing.T) {
	s, _ := newTestStore(t)

	doc := s.Load()
	if doc.Files == nil || doc.Trash == nil || doc.Directories == nil {
		t.Error("Missing document should load as empty lists, not nil")
	}
	if len(doc.Files) != 0 || len(doc.Trash) != 0 || len(doc.Directories) != 0 {
		t.Error("Missing document should load empty")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Update(func(doc *types.Document) error {
		doc.Files = append(doc.Files, types.FileRecord{ID: "f1", Name: "a.txt"})
		doc.Directories = append(doc.Directories, types.DirectoryRecord{ID: "d1", Name: "docs"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc := s.Load()
	if len(doc.Files) != 1 || doc.Files[0].ID != "f1" {
		t.Errorf("Expected one file f1, got %+v", doc.Files)
	}
	if len(doc.Directories) != 1 || doc.Directories[0].ID != "d1" {
		t.Errorf("Expected one directory d1, got %+v", doc.Directories)
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Update(func(doc *types.Document) error {
		doc.Files = append(doc.Files, types.FileRecord{ID: "f1"})
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	wantErr := os.ErrClosed
	err := s.Update(func(doc *types.Document) error {
		doc.Files = nil
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Expected fn error to propagate, got %v", err)
	}

	doc := s.Load()
	if len(doc.Files) != 1 {
		t.Error("Failed update must not persist changes")
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	s, dir := newTestStore(t)

	if err := os.WriteFile(filepath.Join(dir, "files.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	doc := s.Load()
	if len(doc.Files) != 0 || len(doc.Trash) != 0 || len(doc.Directories) != 0 {
		t.Error("Corrupt document should fall back to empty")
	}
}

func TestSharesRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.UpdateShares(func(shares map[string]types.ShareRecord) error {
		shares["share_1"] = types.ShareRecord{ID: "share_1", Token: "tok", Name: "demo"}
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateShares failed: %v", err)
	}

	shares := s.LoadShares()
	if got, ok := shares["share_1"]; !ok || got.Token != "tok" {
		t.Errorf("Expected share_1 with token tok, got %+v", shares)
	}
}
