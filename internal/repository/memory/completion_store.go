package memory

import (
	"context"
	"sync"

	"food-expose-backend/internal/domain"
)

// CompletionStore keeps key/value pairs in process memory. Values are lost on
// restart; it backs local development and tests.
type CompletionStore struct {
	namespace string
	data      sync.Map
}

func NewCompletionStore(namespace string) *CompletionStore {
	return &CompletionStore{namespace: namespace}
}

var _ domain.CompletionStore = (*CompletionStore)(nil)

func (s *CompletionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := s.data.Load(s.namespace + ":" + key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *CompletionStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.Store(s.namespace+":"+key, value)
	return nil
}

func (s *CompletionStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
