// Package memory provides the in-memory business store.
package memory

import (
	"context"
	"sync"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

// Store keeps business records in process memory: an id lookup plus an
// ordered id sequence so positional addressing works. It is the default
// store; contents do not survive a restart.
type Store struct {
	mu      sync.RWMutex
	records map[string]lead.Business
	order   []string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]lead.Business),
	}
}

// ReplaceAll discards the current contents and installs the given records.
func (s *Store) ReplaceAll(_ context.Context, records []lead.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]lead.Business, len(records))
	s.order = make([]string, 0, len(records))
	for _, b := range records {
		s.records[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	return nil
}

// List returns an ordered snapshot of all records.
func (s *Store) List(_ context.Context) ([]lead.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lead.Business, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Get fetches one record by id.
func (s *Store) Get(_ context.Context, id string) (lead.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.records[id]
	if !ok {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	return b, nil
}

// GetByIndex fetches one record by its position in the ingestion order.
func (s *Store) GetByIndex(_ context.Context, index int) (lead.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.order) {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	return s.records[s.order[index]], nil
}

// SetWebsite records a discovered website on an existing record and returns
// the updated copy.
func (s *Store) SetWebsite(_ context.Context, id string, url string) (lead.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.records[id]
	if !ok {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	b.Website = &url
	s.records[id] = b
	return b, nil
}

// Count reports the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// Clear empties the store.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]lead.Business)
	s.order = nil
	return nil
}
