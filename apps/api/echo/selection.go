package echoapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/trezcool/placement/core/enrollment"
)

// SelectionStore keeps the staging selection of each operator between requests.
// Idle selections expire after the configured TTL.
type SelectionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSelectionStore(ttl time.Duration) *SelectionStore {
	return &SelectionStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *SelectionStore) Get(operatorID string) enrollment.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(operatorID)
}

func (s *SelectionStore) get(operatorID string) enrollment.Selection {
	if v, ok := s.cache.Get(operatorID); ok {
		if ids, ok := v.([]uuid.UUID); ok {
			return enrollment.NewSelection(ids...)
		}
	}
	return enrollment.NewSelection()
}

// Update replaces the operator's selection with fn's result, fn sees the current one.
func (s *SelectionStore) Update(
	operatorID string,
	fn func(enrollment.Selection) (enrollment.Selection, error),
) (enrollment.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := fn(s.get(operatorID))
	if err != nil {
		return nil, err
	}
	if sel.Len() == 0 {
		s.cache.Delete(operatorID)
	} else {
		s.cache.Set(operatorID, sel.IDs(), cache.DefaultExpiration)
	}
	return sel, nil
}

func (s *SelectionStore) Clear(operatorID string) {
	s.cache.Delete(operatorID)
}
