package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"tally/internal/kv"
)

// Config holds connection settings for the redis store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Namespace string // prefix applied to every key, e.g. "tally:"
}

// Store maps each slot to one redis string key.
type Store struct {
	rdb       *goredis.Client
	namespace string
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Closer = (*Store)(nil)
)

// New dials redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return NewWithClient(rdb, cfg.Namespace), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client, namespace string) *Store {
	return &Store{rdb: rdb, namespace: namespace}
}

func (s *Store) key(k string) string {
	return s.namespace + k
}

// Get implements kv.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set implements kv.Store. Slots never expire.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
