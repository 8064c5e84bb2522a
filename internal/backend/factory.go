package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/crypto"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var opts []storage.Option
	if config.NoteEncryptionKey != "" {
		sealer, err := crypto.NewSealer(config.NoteEncryptionKey, config.NoteSigningKey)
		if err != nil {
			return nil, fmt.Errorf("note sealer: %w", err)
		}
		opts = append(opts, storage.WithSealer(sealer))
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"notes_sealed", len(opts) > 0)

	return &BackendResult{
		Type:    SQLiteBackend,
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New()
	if config.SeedFile != "" {
		user := config.DefaultUser
		if user == "" {
			user = DefaultSeedUser
		}
		seeded, err := memory.NewFromFile(config.SeedFile, user)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		store = seeded
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Type:  MemoryBackend,
		Store: store,
		Ping:  func(context.Context) error { return nil },
	}, nil
}
