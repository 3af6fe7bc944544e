package tool

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateID returns a compact id with an optional prefix, e.g. "dir_" or
// "share_". Used for every persisted record id.
func GenerateID(prefix string) string {
	return prefix + strings.ReplaceAll(GenerateRandomUUID(), "-", "")
}

// GenerateShareToken returns a 128-bit random hex token. The token is the
// sole capability needed to access a share, so it must be unguessable.
func GenerateShareToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return GenerateID("")
	}
	return hex.EncodeToString(b)
}
