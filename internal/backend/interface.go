package backend

import (
	"context"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/kv"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function
type BackendResult struct {
	Store kv.Store
	// Cache is the read cache wrapped around Store, nil when caching is off.
	Cache   *cache.LRUCache[[]byte]
	Cleanup CleanupFunc
}

// Close runs Cleanup if one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// local
	SQLiteDBPath string

	// memory: optional directory of <key>.json seed documents
	DataDirectory string

	// Read cache; disabled when CacheSize <= 0 and for shared backends
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType names a storage backend.
type BackendType string

const (
	LocalBackend    BackendType = "local"
	MemoryBackend   BackendType = "memory"
	FirebaseBackend BackendType = "firebase"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// Shared reports whether other processes can write the backend's data.
// A per-process read cache over a shared backend would serve stale documents.
func (bt BackendType) Shared() bool {
	return bt == LocalBackend
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case LocalBackend, MemoryBackend, FirebaseBackend:
		return true
	default:
		return false
	}
}
