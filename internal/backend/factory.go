package backend

import (
	"context"
	"fmt"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/kv/memory"
	"fintrack/internal/kv/sqlite"
	"fintrack/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case LocalBackend:
		result, err = f.createLocalBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	case FirebaseBackend:
		// Declared so configs naming it fail loudly instead of falling back.
		err = fmt.Errorf("%s backend: %w", config.Type, core.ErrBackendUnavailable)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		f.logger.ErrorContext(ctx, "Backend initialization failed",
			log.FieldBackend, config.Type.String(), log.FieldError, err)
		return nil, err
	}

	switch {
	case config.CacheSize <= 0:
	case config.Type.Shared():
		f.logger.InfoContext(ctx, "Read cache disabled for shared backend",
			log.FieldBackend, config.Type.String())
	default:
		lru := cache.NewLRUCache[[]byte](config.CacheSize, config.CacheTTL)
		result.Store = kv.NewCached(result.Store, lru)
		result.Cache = lru
		f.logger.InfoContext(ctx, "Read cache enabled",
			"size", config.CacheSize, "ttl", config.CacheTTL.String())
	}
	return result, nil
}

func (f *DefaultFactory) createLocalBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized local backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var store *memory.Store
	if config.DataDirectory != "" {
		store = memory.NewFromDir(config.DataDirectory)
	} else {
		store = memory.New()
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", config.DataDirectory, log.FieldCount, store.Len())

	return &BackendResult{Store: store}, nil
}
