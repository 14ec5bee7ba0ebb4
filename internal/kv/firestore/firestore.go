package firestore

import (
	"context"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tally/internal/kv"
)

const valueField = "value"

// Store keeps each slot as one document of a collection, with the whole
// payload in a single string field.
type Store struct {
	client     *gfs.Client
	collection string
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Closer = (*Store)(nil)
)

// New creates a Firestore-backed store. credentialsFile may be empty to use
// application default credentials.
func New(ctx context.Context, projectID, collection, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client, collection: collection}, nil
}

// Get implements kv.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s: %w", key, err)
	}
	return decodeDoc(snap.Data())
}

// Set implements kv.Store
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.Collection(s.collection).Doc(key).Set(ctx, encodeDoc(value, time.Now()))
	if err != nil {
		return fmt.Errorf("firestore set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func encodeDoc(value []byte, now time.Time) map[string]any {
	return map[string]any{
		valueField:   string(value),
		"updated_at": now.UTC(),
	}
}

func decodeDoc(data map[string]any) ([]byte, error) {
	raw, ok := data[valueField]
	if !ok {
		return nil, kv.ErrNotFound
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("firestore field %q has type %T, want string", valueField, raw)
	}
	return []byte(s), nil
}
