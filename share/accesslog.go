package share

import (
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// AccessEntry is one line of the share audit trail. Denials are logged with
// the same fidelity as successes so the log doubles as an intrusion feed.
type AccessEntry struct {
	Timestamp string         `json:"timestamp"`
	Token     string         `json:"token"`
	Action    string         `json:"action"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"user_agent"`
	Details   map[string]any `json:"details"`
}

// AccessLog appends JSON lines to a single log file.
type AccessLog struct {
	path string
	mu   sync.Mutex
}

// NewAccessLog creates an append-only access log at path.
func NewAccessLog(path string) *AccessLog {
	return &AccessLog{path: path}
}

// Log appends one entry. Logging failures must never fail the request, so
// they are only reported to the server log.
func (l *AccessLog) Log(token, action, ip, userAgent string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	entry := AccessEntry{
		Timestamp: time.Now().Format(types.TimeLayout),
		Token:     token,
		Action:    action,
		IP:        ip,
		UserAgent: userAgent,
		Details:   details,
	}
	line, err := sonic.Marshal(entry)
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to encode access log entry: %v", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to open access log: %v", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		tool.DefaultLogger.Errorf("Failed to append access log entry: %v", err)
	}
}
