package share

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/types"
)

var testInfo = RequestInfo{IP: "127.0.0.1", UserAgent: "test-agent"}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	accessLog := NewAccessLog(filepath.Join(dir, "access.log"))
	return NewEngine(st, accessLog), st
}

func addDirectory(t *testing.T, st *store.Store, id, parent string) {
	t.Helper()
	err := st.Update(func(doc *types.Document) error {
		doc.Directories = append(doc.Directories, types.DirectoryRecord{ID: id, Name: id, Parent: parent})
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to add directory %s: %v", id, err)
	}
}

func addFile(t *testing.T, st *store.Store, id, directory string) {
	t.Helper()
	err := st.Update(func(doc *types.Document) error {
		doc.Files = append(doc.Files, types.FileRecord{ID: id, Name: id + ".txt", Directory: directory})
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to add file %s: %v", id, err)
	}
}

func createShare(t *testing.T, e *Engine, req types.CreateShareRequest) types.ShareRecord {
	t.Helper()
	record, err := e.Create(req, testInfo)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return record
}

func TestCreateShareValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.Create(types.CreateShareRequest{}, testInfo); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing name, got %v", err)
	}
	_, err := e.Create(types.CreateShareRequest{Name: "x", RootDirectory: "ghost"}, testInfo)
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown root directory, got %v", err)
	}
}

func TestCreateShareDefaults(t *testing.T) {
	e, _ := newTestEngine(t)

	record := createShare(t, e, types.CreateShareRequest{Name: "demo"})
	if !record.AllowDownload || !record.AllowPreview {
		t.Error("Download and preview must default to allowed")
	}
	if record.AllowDelete || record.AllowUpload {
		t.Error("Delete and upload must default to denied")
	}
	if len(record.Token) != 32 {
		t.Errorf("Expected 32-char hex token, got %q", record.Token)
	}
	if record.PasswordHash != "" {
		t.Error("No password given, hash must be empty")
	}
}

func TestResolveUnknownToken(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Resolve("nope", testInfo); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	e, _ := newTestEngine(t)

	open := createShare(t, e, types.CreateShareRequest{Name: "open"})
	ok, err := e.VerifyPassword(open.Token, "", testInfo)
	if err != nil || !ok {
		t.Errorf("Password-less share must verify trivially, got ok=%v err=%v", ok, err)
	}

	locked := createShare(t, e, types.CreateShareRequest{Name: "locked", Password: "hunter2"})
	if locked.PasswordHash == "" || locked.PasswordHash == "hunter2" {
		t.Error("Password must be stored hashed, never plaintext")
	}
	ok, err = e.VerifyPassword(locked.Token, "hunter2", testInfo)
	if err != nil || !ok {
		t.Errorf("Correct password must verify, got ok=%v err=%v", ok, err)
	}
	ok, err = e.VerifyPassword(locked.Token, "wrong", testInfo)
	if err != nil || ok {
		t.Errorf("Wrong password must not verify, got ok=%v err=%v", ok, err)
	}
}

// TestListFilesPathContainment checks that a share rooted at R exposes R's
// subtree and nothing else, and that traversal-looking ids never reach the
// tree lookup.
func TestListFilesPathContainment(t *testing.T) {
	e, st := newTestEngine(t)

	addDirectory(t, st, "R", "")
	addDirectory(t, st, "D", "R")
	addDirectory(t, st, "X", "")
	addFile(t, st, "fd", "D")
	addFile(t, st, "fx", "X")

	s := createShare(t, e, types.CreateShareRequest{Name: "scoped", RootDirectory: "R"})

	files, _, err := e.ListFiles(s.Token, "D", testInfo)
	if err != nil {
		t.Fatalf("Listing in-scope directory failed: %v", err)
	}
	if len(files) != 1 || files[0].ID != "fd" {
		t.Errorf("Expected fd under D, got %+v", files)
	}

	if _, _, err := e.ListFiles(s.Token, "X", testInfo); !errors.Is(err, types.ErrInvalidPath) {
		t.Errorf("Out-of-scope directory must fail with ErrInvalidPath, got %v", err)
	}

	for _, bad := range []string{"../etc", "./R", `R\D`, "R;D", "dir with space"} {
		if _, _, err := e.ListFiles(s.Token, bad, testInfo); !errors.Is(err, types.ErrInvalidPath) {
			t.Errorf("Directory id %q must be rejected, got %v", bad, err)
		}
	}
}

func TestListFilesDefaultsToShareRoot(t *testing.T) {
	e, st := newTestEngine(t)

	addDirectory(t, st, "R", "")
	addFile(t, st, "fr", "R")
	addFile(t, st, "froot", "")

	s := createShare(t, e, types.CreateShareRequest{Name: "scoped", RootDirectory: "R"})
	files, _, err := e.ListFiles(s.Token, "", testInfo)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].ID != "fr" {
		t.Errorf("Empty directory id must list the share root, got %+v", files)
	}
}

func TestAddFileCopyIndependence(t *testing.T) {
	e, st := newTestEngine(t)

	addFile(t, st, "f1", "")
	s := createShare(t, e, types.CreateShareRequest{Name: "demo"})

	copied, err := e.AddFile(s.Token, "f1", "", testInfo)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if copied.Name != "f1.txt" {
		t.Errorf("Expected copied name f1.txt, got %s", copied.Name)
	}

	// Renaming the original must not touch the share's copy.
	err = st.Update(func(doc *types.Document) error {
		doc.Files[0].Name = "renamed.txt"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	shares := st.LoadShares()
	got := shares[s.ID].Files
	if len(got) != 1 || got[0].Name != "f1.txt" {
		t.Errorf("Share copy must be independent of the original, got %+v", got)
	}
}

func TestAddFileNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	s := createShare(t, e, types.CreateShareRequest{Name: "demo"})
	if _, err := e.AddFile(s.Token, "ghost", "", testInfo); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFileRequiresPermission(t *testing.T) {
	e, st := newTestEngine(t)

	addFile(t, st, "f1", "")
	s := createShare(t, e, types.CreateShareRequest{Name: "readonly"})
	if _, err := e.AddFile(s.Token, "f1", "", testInfo); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	if err := e.DeleteFile(s.Token, "f1", testInfo); !errors.Is(err, types.ErrForbidden) {
		t.Errorf("Expected ErrForbidden without allow_delete, got %v", err)
	}
	if got := st.LoadShares()[s.ID].Files; len(got) != 1 {
		t.Error("Denied delete must leave the file in place")
	}

	writable := createShare(t, e, types.CreateShareRequest{Name: "writable", AllowDelete: true})
	if _, err := e.AddFile(writable.Token, "f1", "", testInfo); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if err := e.DeleteFile(writable.Token, "f1", testInfo); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if got := st.LoadShares()[writable.ID].Files; len(got) != 0 {
		t.Error("Allowed delete must remove the file")
	}
}

func TestShareDeleteDirectoryCascade(t *testing.T) {
	e, st := newTestEngine(t)

	s := createShare(t, e, types.CreateShareRequest{Name: "demo", AllowDelete: true})

	top, err := e.CreateDirectory(s.Token, "top", "", testInfo)
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	nested, err := e.CreateDirectory(s.Token, "nested", top.ID, testInfo)
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}

	addFile(t, st, "f1", "")
	if _, err := e.AddFile(s.Token, "f1", nested.ID, testInfo); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	if err := e.DeleteDirectory(s.Token, top.ID, testInfo); err != nil {
		t.Fatalf("DeleteDirectory failed: %v", err)
	}

	rec := st.LoadShares()[s.ID]
	if len(rec.Directories) != 0 {
		t.Errorf("Cascade must remove nested directories, got %+v", rec.Directories)
	}
	if len(rec.Files) != 0 {
		t.Errorf("Cascade must remove files in deleted directories, got %+v", rec.Files)
	}
}

func TestDeleteShare(t *testing.T) {
	e, st := newTestEngine(t)

	s := createShare(t, e, types.CreateShareRequest{Name: "demo"})
	if err := e.DeleteShare(s.ID); err != nil {
		t.Fatalf("DeleteShare failed: %v", err)
	}
	if _, ok := st.LoadShares()[s.ID]; ok {
		t.Error("Deleted share must be gone")
	}
	if err := e.DeleteShare(s.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on repeat delete, got %v", err)
	}
}
