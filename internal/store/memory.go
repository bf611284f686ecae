package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is stored for a key.
	ErrNotFound = errors.New("no snapshot for key")
)

// SnapshotHistory holds the snapshots of one key, oldest first.
type SnapshotHistory struct {
	Snapshots []weather.Snapshot
}

// MemoryStore is a concurrency-safe in-memory snapshot store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: snapshot key, value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per key
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a snapshot and enforces retention. A snapshot whose Seq is
// lower than the newest stored one for the same key is dropped, so a slow
// response never replaces the result of a later request.
func (s *MemoryStore) Save(snapshot weather.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[snapshot.Key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[snapshot.Key] = history
	}

	if n := len(history.Snapshots); n > 0 && history.Snapshots[n-1].Seq > snapshot.Seq {
		return false
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age, always keeping the newest snapshot.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots)-1; i++ {
			if !history.Snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
	return true
}

// Latest returns the most recent snapshot for key.
func (s *MemoryStore) Latest(key string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// History returns the stored snapshots for key fetched within [from, to].
func (s *MemoryStore) History(key string, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Snapshot
	for _, snap := range history.Snapshots {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
