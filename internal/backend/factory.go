package backend

import (
	"context"
	"fmt"

	"tally/internal/kv/firestore"
	"tally/internal/kv/memory"
	"tally/internal/kv/redis"
	"tally/internal/kv/sqlstore"
	applog "tally/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentStore),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case SQLiteBackend:
		return f.createSQLBackend(sqlstore.SQLite, config.SQLiteDBPath, "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		return f.createSQLBackend(sqlstore.Postgres, config.PostgresDSN, "driver", "postgres")
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	case FirestoreBackend:
		return f.createFirestoreBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", applog.FieldBackend, MemoryBackend)
	return &BackendResult{Store: memory.New()}, nil
}

func (f *DefaultFactory) createSQLBackend(dialect sqlstore.Dialect, dsn string, attrs ...any) (*BackendResult, error) {
	store, err := sqlstore.Open(dialect, dsn, sqlstore.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", dialect, err)
	}

	f.logger.Info("Initialized SQL backend", append([]any{applog.FieldBackend, string(dialect)}, attrs...)...)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := redis.New(ctx, redis.Config{
		Addr:      config.RedisAddr,
		Password:  config.RedisPassword,
		DB:        config.RedisDB,
		Namespace: namespacePrefix(config.RedisNamespace),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis store: %w", err)
	}

	f.logger.Info("Initialized redis backend",
		applog.FieldBackend, RedisBackend,
		"addr", config.RedisAddr,
		"db", config.RedisDB)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createFirestoreBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := firestore.New(ctx, config.FirestoreProjectID, config.FirestoreCollection, config.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore store: %w", err)
	}

	f.logger.Info("Initialized firestore backend",
		applog.FieldBackend, FirestoreBackend,
		"project_id", config.FirestoreProjectID,
		"collection", config.FirestoreCollection)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

// namespacePrefix turns "tally" into "tally:" so keys read as tally:@transactions.
func namespacePrefix(ns string) string {
	if ns == "" || ns[len(ns)-1] == ':' {
		return ns
	}
	return ns + ":"
}
