package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// Store persists the metadata document and the shares document as whole
// JSON files. Every mutation is read-modify-write of the entire structure;
// the in-process mutex serializes writers so unrelated fields are never
// dropped by a racing partial update. There is no cross-process isolation.
type Store struct {
	filesPath  string
	sharesPath string
	mu         sync.Mutex
	sharesMu   sync.Mutex
}

// New creates a store rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", types.ErrIOFailure, err)
	}
	return &Store{
		filesPath:  filepath.Join(dataDir, "files.json"),
		sharesPath: filepath.Join(dataDir, "shares.json"),
	}, nil
}

// Load reads the metadata document. An unreadable or corrupt store falls
// back to an empty default document rather than failing the request.
func (s *Store) Load() types.Document {
	doc := types.Document{
		Files:       []types.FileRecord{},
		Trash:       []types.FileRecord{},
		Directories: []types.DirectoryRecord{},
	}
	data, err := os.ReadFile(s.filesPath)
	if err != nil {
		if !os.IsNotExist(err) {
			tool.DefaultLogger.Warnf("Failed to read metadata document, using empty default: %v", err)
		}
		return doc
	}
	if err := sonic.Unmarshal(data, &doc); err != nil {
		tool.DefaultLogger.Warnf("Corrupt metadata document, using empty default: %v", err)
		return types.Document{
			Files:       []types.FileRecord{},
			Trash:       []types.FileRecord{},
			Directories: []types.DirectoryRecord{},
		}
	}
	if doc.Files == nil {
		doc.Files = []types.FileRecord{}
	}
	if doc.Trash == nil {
		doc.Trash = []types.FileRecord{}
	}
	if doc.Directories == nil {
		doc.Directories = []types.DirectoryRecord{}
	}
	return doc
}

// Save writes the whole metadata document.
func (s *Store) Save(doc types.Document) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode metadata document: %v", types.ErrIOFailure, err)
	}
	if err := os.WriteFile(s.filesPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write metadata document: %v", types.ErrIOFailure, err)
	}
	return nil
}

// Update runs fn over the current document and saves the result, holding the
// store lock for the whole read-modify-write cycle. When fn returns an error
// nothing is written.
func (s *Store) Update(fn func(doc *types.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.Load()
	if err := fn(&doc); err != nil {
		return err
	}
	return s.Save(doc)
}

// LoadShares reads the shares document keyed by share id. Missing or corrupt
// data falls back to an empty map.
func (s *Store) LoadShares() map[string]types.ShareRecord {
	shares := map[string]types.ShareRecord{}
	data, err := os.ReadFile(s.sharesPath)
	if err != nil {
		if !os.IsNotExist(err) {
			tool.DefaultLogger.Warnf("Failed to read shares document, using empty default: %v", err)
		}
		return shares
	}
	if err := sonic.Unmarshal(data, &shares); err != nil {
		tool.DefaultLogger.Warnf("Corrupt shares document, using empty default: %v", err)
		return map[string]types.ShareRecord{}
	}
	return shares
}

// SaveShares writes the whole shares document.
func (s *Store) SaveShares(shares map[string]types.ShareRecord) error {
	data, err := sonic.Marshal(shares)
	if err != nil {
		return fmt.Errorf("%w: encode shares document: %v", types.ErrIOFailure, err)
	}
	if err := os.WriteFile(s.sharesPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write shares document: %v", types.ErrIOFailure, err)
	}
	return nil
}

// UpdateShares runs fn over the current shares document and saves the result
// under the shares lock.
func (s *Store) UpdateShares(fn func(shares map[string]types.ShareRecord) error) error {
	s.sharesMu.Lock()
	defer s.sharesMu.Unlock()
	shares := s.LoadShares()
	if err := fn(shares); err != nil {
		return err
	}
	return s.SaveShares(shares)
}
