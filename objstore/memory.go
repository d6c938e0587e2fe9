package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type storedObject struct {
	info    ObjectInfo
	content []byte
}

// MemoryStore is a thread-safe, in-memory Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*storedObject
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*storedObject),
	}
}

// Put reads content fully and stores it, replacing any object at the same path.
func (s *MemoryStore) Put(ctx context.Context, obj Object, content io.Reader) error {
	if err := checkPath(obj.Path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("reading content for %s: %w", obj.Path, err)
	}

	meta := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		meta[k] = v
	}

	s.mu.Lock()
	s.objects[obj.Path] = &storedObject{
		info: ObjectInfo{
			Path:        obj.Path,
			Size:        int64(len(data)),
			ContentType: obj.ContentType,
			Metadata:    meta,
			Updated:     time.Now().UTC(),
		},
		content: data,
	}
	s.mu.Unlock()
	return nil
}

// List returns objects under prefix sorted by path.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ObjectInfo, 0)
	for p, o := range s.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, o.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Get returns a copy of an object's bytes.
func (s *MemoryStore) Get(path string) ([]byte, ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[path]
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return bytes.Clone(o.content), o.info, nil
}
