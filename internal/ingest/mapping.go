package ingest

import (
	"sync"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

// MappingRegistry holds the process-wide column mapping. Display names may
// be updated by uploads; the set of logical fields never changes.
type MappingRegistry struct {
	mu     sync.RWMutex
	fields lead.ColumnMapping
}

// NewMappingRegistry returns a registry seeded with the default mapping.
func NewMappingRegistry() *MappingRegistry {
	return &MappingRegistry{fields: lead.DefaultColumnMapping()}
}

// Snapshot returns an independent copy of the current mapping.
func (r *MappingRegistry) Snapshot() lead.ColumnMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fields.Clone()
}

// ApplyDisplayNames updates display labels for known logical fields.
// Unknown fields are ignored. Updates apply even when a later validation
// step rejects the upload.
func (r *MappingRegistry) ApplyDisplayNames(names map[string]string) {
	if len(names) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for field, label := range names {
		fm, ok := r.fields[field]
		if !ok {
			continue
		}
		fm.DisplayName = label
		r.fields[field] = fm
	}
}
