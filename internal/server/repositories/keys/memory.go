package keys

import (
	"context"
	"sync"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/abidm-bit/riceKrispies/internal/server/models"
)

// MemoryRepository keeps the pool in insertion order. Unburned keys sit after
// the cursor, so a claim is O(1) and burned keys are never revisited.
type MemoryRepository struct {
	mu     sync.Mutex
	keys   []models.Key
	index  map[string]int
	cursor int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: make(map[string]int)}
}

func (r *MemoryRepository) Claim(_ context.Context, userID int64) (*models.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.cursor < len(r.keys) && r.keys[r.cursor].Burned {
		r.cursor++
	}
	if r.cursor == len(r.keys) {
		return nil, common.ErrNoAvailableKeys
	}

	k := &r.keys[r.cursor]
	id := userID
	k.Burned = true
	k.BurnedBy = &id
	r.cursor++

	out := *k
	return &out, nil
}

func (r *MemoryRepository) InsertBatch(_ context.Context, tokens []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inserted int64
	for _, token := range tokens {
		if _, ok := r.index[token]; ok {
			continue
		}
		r.index[token] = len(r.keys)
		r.keys = append(r.keys, models.Key{Token: token})
		inserted++
	}
	return inserted, nil
}

func (r *MemoryRepository) CountUnburned(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := r.cursor; i < len(r.keys); i++ {
		if !r.keys[i].Burned {
			n++
		}
	}
	return n, nil
}

// Get returns a copy of the key with the given token.
func (r *MemoryRepository) Get(token string) (models.Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[token]
	if !ok {
		return models.Key{}, false
	}
	return r.keys[i], true
}
