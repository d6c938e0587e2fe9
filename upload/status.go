package upload

import "sync"

// StatusStore tracks which services have an upload in flight. Unknown ids
// read as not uploading.
type StatusStore struct {
	mu        sync.RWMutex
	uploading map[string]bool
}

// NewStatusStore returns an empty StatusStore.
func NewStatusStore() *StatusStore {
	return &StatusStore{uploading: make(map[string]bool)}
}

// Get reports whether serviceID is uploading.
func (s *StatusStore) Get(serviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploading[serviceID]
}

// Set records the uploading flag for serviceID.
func (s *StatusStore) Set(serviceID string, uploading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading[serviceID] = uploading
}

// Snapshot copies the current flags.
func (s *StatusStore) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.uploading))
	for k, v := range s.uploading {
		out[k] = v
	}
	return out
}
