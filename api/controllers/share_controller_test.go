package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rutno/clouddrive-go/api/notifyhub"
	"github.com/rutno/clouddrive-go/share"
	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/types"
)

func setupShareRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	accessLog := share.NewAccessLog(filepath.Join(dir, "access.log"))
	engine := share.NewEngine(st, accessLog)

	ctrl := NewShareController(engine, "http://drive.example", notifyhub.New())
	router := gin.New()
	router.Any("/api/share", ctrl.HandleAction)
	return router, st
}

func createShareViaAPI(t *testing.T, router *gin.Engine, body map[string]interface{}) (string, string) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/api/share?action=create_share", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create_share: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ShareID string `json:"share_id"`
		Token   string `json:"token"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse create_share response: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "http://drive.example/share/") {
		t.Errorf("Expected share URL under base, got %s", resp.URL)
	}
	return resp.ShareID, resp.Token
}

func TestShareMutationRequiresPost(t *testing.T) {
	router, _ := setupShareRouter(t)

	for _, action := range []string{"create_share", "delete_share", "add_file", "verify_password"} {
		req, _ := http.NewRequest("GET", "/api/share?action="+action, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: expected 405, got %d", action, w.Code)
		}
	}
}

func TestShareLifecycleViaAPI(t *testing.T) {
	router, st := setupShareRouter(t)

	shareID, token := createShareViaAPI(t, router, map[string]interface{}{"name": "demo"})

	req, _ := http.NewRequest("GET", "/api/share?action=get_share&token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get_share: expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password_hash") || strings.Contains(w.Body.String(), "$2a$") {
		t.Error("get_share must never expose the password hash")
	}

	req, _ = http.NewRequest("GET", "/api/share?action=get_shares", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get_shares: expected 200, got %d", w.Code)
	}

	deleteBody, _ := json.Marshal(map[string]string{"share_id": shareID})
	req, _ = http.NewRequest("POST", "/api/share?action=delete_share", bytes.NewBuffer(deleteBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete_share: expected 200, got %d", w.Code)
	}
	if len(st.LoadShares()) != 0 {
		t.Error("Share must be gone after delete_share")
	}
}

func TestShareGetFilesOutsideRootForbidden(t *testing.T) {
	router, st := setupShareRouter(t)

	err := st.Update(func(doc *types.Document) error {
		doc.Directories = append(doc.Directories,
			types.DirectoryRecord{ID: "R", Name: "root"},
			types.DirectoryRecord{ID: "X", Name: "outside"},
		)
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, token := createShareViaAPI(t, router, map[string]interface{}{
		"name":           "scoped",
		"root_directory": "R",
	})

	req, _ := http.NewRequest("GET", "/api/share?action=get_files&token="+token+"&directory=X", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Out-of-scope directory: expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestShareVerifyPasswordViaAPI(t *testing.T) {
	router, _ := setupShareRouter(t)

	_, token := createShareViaAPI(t, router, map[string]interface{}{
		"name":     "locked",
		"password": "hunter2",
	})

	check := func(password string, wantValid bool) {
		body, _ := json.Marshal(map[string]string{"password": password})
		req, _ := http.NewRequest("POST", "/api/share?action=verify_password&token="+token, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("verify_password: expected 200, got %d", w.Code)
		}
		var resp struct {
			Valid bool `json:"valid"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if resp.Valid != wantValid {
			t.Errorf("Password %q: expected valid=%v, got %v", password, wantValid, resp.Valid)
		}
	}

	check("hunter2", true)
	check("wrong", false)
}

func TestShareUnknownTokenNotFound(t *testing.T) {
	router, _ := setupShareRouter(t)

	req, _ := http.NewRequest("GET", "/api/share?action=get_share&token=deadbeef", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown token, got %d", w.Code)
	}
}
