package sales

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Dataset is one upload held for the lifetime of a browser session
type Dataset struct {
	ID         string
	Name       string
	Set        *RecordSet
	UploadedAt time.Time
	ExpiresAt  time.Time
}

// Info summarizes the dataset for API responses
func (d *Dataset) Info() domain.DatasetInfo {
	return domain.DatasetInfo{
		ID:         d.ID,
		Name:       d.Name,
		Rows:       d.Set.Len(),
		SKUs:       d.Set.SKUs(),
		Columns:    d.Set.Columns(),
		FirstDate:  d.Set.FirstDate(),
		LastDate:   d.Set.LastDate(),
		UploadedAt: d.UploadedAt,
		ExpiresAt:  d.ExpiresAt,
	}
}

// Store keeps uploaded datasets in memory. Nothing is written to disk and
// nothing survives a restart; entries expire after the TTL and the oldest
// entry is evicted once the store is full.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewStore creates a dataset store. A non-positive ttl disables expiry and a
// non-positive max disables eviction.
func NewStore(ttl time.Duration, max int) *Store {
	return &Store{
		datasets: make(map[string]*Dataset),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Put stores a parsed upload under a fresh ID
func (s *Store) Put(name string, set *RecordSet) (*Dataset, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrEmptyFile
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.removeExpiredLocked(now)
	if s.max > 0 {
		for len(s.datasets) >= s.max {
			s.evictOldestLocked()
		}
	}

	ds := &Dataset{
		ID:         uuid.New().String(),
		Name:       name,
		Set:        set,
		UploadedAt: now,
	}
	if s.ttl > 0 {
		ds.ExpiresAt = now.Add(s.ttl)
	}

	s.datasets[ds.ID] = ds
	return ds, nil
}

// Get retrieves a dataset by ID
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	ds, exists := s.datasets[id]
	s.mu.RUnlock()

	if !exists || s.expired(ds, s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return ds, nil
}

// Delete removes a dataset from the store
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	delete(s.datasets, id)
	if s.expired(ds, s.now()) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return nil
}

// List returns the live datasets, oldest first
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	result := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		if !s.expired(ds, now) {
			result = append(result, ds)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.Before(result[j].UploadedAt)
	})
	return result
}

// CleanupExpired removes expired datasets and returns how many were removed
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeExpiredLocked(s.now())
}

// GetStats returns statistics about the store
func (s *Store) GetStats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := 0
	for _, ds := range s.datasets {
		rows += ds.Set.Len()
	}
	return map[string]int{
		"datasets": len(s.datasets),
		"rows":     rows,
		"capacity": s.max,
	}
}

func (s *Store) expired(ds *Dataset, now time.Time) bool {
	return !ds.ExpiresAt.IsZero() && !now.Before(ds.ExpiresAt)
}

func (s *Store) removeExpiredLocked(now time.Time) int {
	removed := 0
	for id, ds := range s.datasets {
		if s.expired(ds, now) {
			delete(s.datasets, id)
			removed++
		}
	}
	return removed
}

func (s *Store) evictOldestLocked() {
	var oldest *Dataset
	for _, ds := range s.datasets {
		if oldest == nil || ds.UploadedAt.Before(oldest.UploadedAt) {
			oldest = ds
		}
	}
	if oldest != nil {
		delete(s.datasets, oldest.ID)
	}
}
