package chunk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/bytedance/sonic"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// SessionTTL bounds how long an abandoned upload keeps its staging files.
// Touching a session (register/check) refreshes the deadline.
var SessionTTL = 24 * time.Hour

const infoFileName = "info.json"

// Assembler stages chunked uploads under <base>/<upload_id>/chunk_<index>
// and merges them in strict ascending index order.
type Assembler struct {
	base     string
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	sessions *ttlworker.Cache[string, string]
}

// MergeResult describes the assembled blob.
type MergeResult struct {
	LocalPath string
	LocalName string
	Size      int64
}

// NewAssembler creates an assembler staging under baseDir. Sessions idle for
// longer than SessionTTL have their staging directories reaped by a
// background janitor.
func NewAssembler(baseDir string) (*Assembler, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create chunks dir: %v", types.ErrIOFailure, err)
	}
	a := &Assembler{
		base:     baseDir,
		locks:    make(map[string]*sync.Mutex),
		sessions: ttlworker.NewCache[string, string](SessionTTL),
	}
	go a.reapLoop()
	return a, nil
}

// reapLoop removes staging directories for sessions that fell out of the TTL
// cache and whose files are older than SessionTTL. The mtime check keeps
// sessions staged before a restart alive until they genuinely age out.
func (a *Assembler) reapLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		entries, err := os.ReadDir(a.base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			uploadID := entry.Name()
			if a.sessions.Get(uploadID) != "" {
				continue
			}
			info, err := os.Stat(filepath.Join(a.sessionDir(uploadID), infoFileName))
			if err == nil && time.Since(info.ModTime()) < SessionTTL {
				continue
			}
			tool.DefaultLogger.Infof("Reaping stale chunk session %s", uploadID)
			a.removeStaging(uploadID)
			a.dropLock(uploadID)
		}
	}
}

func (a *Assembler) sessionDir(uploadID string) string {
	return filepath.Join(a.base, uploadID)
}

func (a *Assembler) lockFor(uploadID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[uploadID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[uploadID] = l
	}
	return l
}

func (a *Assembler) dropLock(uploadID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.locks, uploadID)
}

func (a *Assembler) readInfo(uploadID string) (types.ChunkSessionInfo, error) {
	var info types.ChunkSessionInfo
	data, err := os.ReadFile(filepath.Join(a.sessionDir(uploadID), infoFileName))
	if err != nil {
		return info, err
	}
	if err := sonic.Unmarshal(data, &info); err != nil {
		return info, err
	}
	return info, nil
}

func (a *Assembler) writeInfo(uploadID string, info types.ChunkSessionInfo) error {
	data, err := sonic.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.sessionDir(uploadID), infoFileName), data, 0o644)
}

// RegisterChunk stores one chunk payload and records its index. The first
// call for an upload id creates the session. Re-registering an index
// overwrites the payload and does not double-count.
func (a *Assembler) RegisterChunk(uploadID string, index, totalChunks int, fileName string, fileSize int64, chunkData io.Reader) error {
	if uploadID == "" {
		return fmt.Errorf("%w: upload id is required", types.ErrInvalidInput)
	}
	if index < 0 || (totalChunks > 0 && index >= totalChunks) {
		return fmt.Errorf("%w: chunk index %d out of range [0,%d)", types.ErrInvalidInput, index, totalChunks)
	}

	lock := a.lockFor(uploadID)
	lock.Lock()
	defer lock.Unlock()

	dir := a.sessionDir(uploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create chunk staging dir: %v", types.ErrIOFailure, err)
	}

	chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%d", index))
	out, err := os.Create(chunkPath)
	if err != nil {
		return fmt.Errorf("%w: create chunk file: %v", types.ErrIOFailure, err)
	}
	if _, err := io.Copy(out, chunkData); err != nil {
		out.Close()
		return fmt.Errorf("%w: write chunk file: %v", types.ErrIOFailure, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close chunk file: %v", types.ErrIOFailure, err)
	}

	info, err := a.readInfo(uploadID)
	if err != nil {
		info = types.ChunkSessionInfo{
			FileName:       fileName,
			FileSize:       fileSize,
			TotalChunks:    totalChunks,
			UploadedChunks: []int{},
		}
	}
	if !slices.Contains(info.UploadedChunks, index) {
		info.UploadedChunks = append(info.UploadedChunks, index)
	}
	if err := a.writeInfo(uploadID, info); err != nil {
		return fmt.Errorf("%w: write session info: %v", types.ErrIOFailure, err)
	}

	a.sessions.Set(uploadID, uploadID)
	return nil
}

// ReceivedIndices returns the distinct chunk indices received so far. A
// missing session yields an empty slice, never an error, so clients can
// probe whether an upload is fresh or resumable.
func (a *Assembler) ReceivedIndices(uploadID string) []int {
	lock := a.lockFor(uploadID)
	lock.Lock()
	defer lock.Unlock()

	info, err := a.readInfo(uploadID)
	if err != nil {
		return []int{}
	}
	a.sessions.Set(uploadID, uploadID)
	received := slices.Clone(info.UploadedChunks)
	slices.Sort(received)
	return received
}

// Merge concatenates the staged chunks in ascending index order into a fresh
// blob under blobDir and removes the staging area. The staging area is
// removed on success regardless of what downstream sinks do with the blob;
// a repeat merge after cleanup fails with ErrNotFound.
func (a *Assembler) Merge(uploadID, fileName string, fileSize int64, totalChunks int, blobDir string) (MergeResult, error) {
	if uploadID == "" {
		return MergeResult{}, fmt.Errorf("%w: upload id is required", types.ErrInvalidInput)
	}

	lock := a.lockFor(uploadID)
	lock.Lock()
	defer lock.Unlock()

	info, err := a.readInfo(uploadID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("%w: chunk session %s", types.ErrNotFound, uploadID)
	}
	if len(info.UploadedChunks) != totalChunks {
		return MergeResult{}, fmt.Errorf("%w: %d of %d chunks received", types.ErrIncomplete, len(info.UploadedChunks), totalChunks)
	}

	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return MergeResult{}, fmt.Errorf("%w: create blob dir: %v", types.ErrIOFailure, err)
	}
	localName := tool.StagedBlobName(fileName)
	outPath := filepath.Join(blobDir, localName)
	out, err := os.Create(outPath)
	if err != nil {
		return MergeResult{}, fmt.Errorf("%w: create output blob: %v", types.ErrIOFailure, err)
	}

	var written int64
	dir := a.sessionDir(uploadID)
	// Chunks must be read strictly in ascending index order; out-of-order
	// concatenation corrupts the result.
	for i := 0; i < totalChunks; i++ {
		chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%d", i))
		in, err := os.Open(chunkPath)
		if err != nil {
			out.Close()
			os.Remove(outPath)
			return MergeResult{}, fmt.Errorf("%w: chunk %d missing from staging", types.ErrIncomplete, i)
		}
		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			os.Remove(outPath)
			return MergeResult{}, fmt.Errorf("%w: concatenate chunk %d: %v", types.ErrIOFailure, i, err)
		}
		written += n
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return MergeResult{}, fmt.Errorf("%w: close output blob: %v", types.ErrIOFailure, err)
	}

	a.sessions.Delete(uploadID)
	a.removeStaging(uploadID)
	a.dropLock(uploadID)

	return MergeResult{
		LocalPath: outPath,
		LocalName: localName,
		Size:      written,
	}, nil
}

func (a *Assembler) removeStaging(uploadID string) {
	if err := os.RemoveAll(a.sessionDir(uploadID)); err != nil {
		tool.DefaultLogger.Errorf("Failed to remove chunk staging dir for %s: %v", uploadID, err)
	}
}
