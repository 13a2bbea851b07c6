// Package memstore is an in-memory storage.Store for tests and
// single-process development: map-backed, mutex guarded.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/agentflow/storage"
)

// Store is a thread-safe in-memory storage.Store. Data is lost when the
// process exits.
type Store struct {
	mu            sync.RWMutex
	interactions  map[string][]storage.Interaction // userID -> interactions, newest last
	activityLogs  []storage.ActivityLog
	weights       map[string]storage.WeightBlob
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		interactions: make(map[string][]storage.Interaction),
		weights:      make(map[string]storage.WeightBlob),
	}
}

// SaveInteraction implements storage.Store.
func (s *Store) SaveInteraction(_ context.Context, in storage.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[in.UserID] = append(s.interactions[in.UserID], in)
	return nil
}

// ListInteractions implements storage.Store. limit <= 0 means unbounded,
// most recent first.
func (s *Store) ListInteractions(_ context.Context, userID string, limit int) ([]storage.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.interactions[userID]
	out := make([]storage.Interaction, len(all))
	for i, in := range all {
		out[len(all)-1-i] = in
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// CreateActivityLog implements storage.Store.
func (s *Store) CreateActivityLog(_ context.Context, log storage.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityLogs = append(s.activityLogs, log)
	return nil
}

// ListActivityLogs implements storage.Store. An empty activityType matches
// everything. Results are most-recent-first, capped at limit (<=0 means the
// default of 100, matching the original storage interface's default).
func (s *Store) ListActivityLogs(_ context.Context, activityType string, limit int) ([]storage.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	matched := make([]storage.ActivityLog, 0, len(s.activityLogs))
	for _, log := range s.activityLogs {
		if activityType == "" || log.ActivityType == activityType {
			matched = append(matched, log)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// SaveWeights implements storage.Store.
func (s *Store) SaveWeights(_ context.Context, blob storage.WeightBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[blob.Name] = blob
	return nil
}

// LoadWeights implements storage.Store.
func (s *Store) LoadWeights(_ context.Context, name string) (storage.WeightBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.weights[name]
	if !ok {
		return storage.WeightBlob{}, storage.ErrNotFound
	}
	return blob, nil
}
