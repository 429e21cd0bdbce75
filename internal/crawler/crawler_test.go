package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
)

// memStore collects inserted items and rejects duplicate URLs like the real
// repository does.
type memStore struct {
	items     []*domain.NewContent
	seen      map[string]bool
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{seen: map[string]bool{}}
}

func (s *memStore) Insert(_ context.Context, c *domain.NewContent) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	if s.seen[c.URL] {
		return "", domain.ErrDuplicateURL
	}
	s.seen[c.URL] = true
	s.items = append(s.items, c)
	return "id", nil
}

func TestStoreItem_Outcomes(t *testing.T) {
	store := newMemStore()
	stats := domain.NewRunStats()
	logger := logging.NewNop()

	item := &domain.NewContent{URL: "https://example.com/a", Title: "A"}

	storeItem(context.Background(), store, domain.SourceTypeBlog, item, stats, logger, nil)
	storeItem(context.Background(), store, domain.SourceTypeBlog, item, stats, logger, nil)

	if stats.TotalProcessed != 2 || stats.Successful != 1 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v, want total=2 successful=1 duplicates=1", stats)
	}

	store.insertErr = errors.New("connection reset")
	storeItem(context.Background(), store, domain.SourceTypeBlog, item, stats, logger, nil)

	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1 after insert error", stats.Failed)
	}
}
