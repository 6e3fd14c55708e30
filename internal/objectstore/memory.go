package objectstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests. Besides
// seeded objects it supports scripted error sequences per object, so retry
// behavior can be exercised deterministically.
type MemoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	versions map[string][]byte
	failures map[string][]Code
	calls    map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string][]byte),
		versions: make(map[string][]byte),
		failures: make(map[string][]Code),
		calls:    make(map[string]int),
	}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

// Put seeds an object.
func (s *MemoryStore) Put(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath(bucket, key)] = append([]byte(nil), data...)
}

// PutVersion seeds a specific object version.
func (s *MemoryStore) PutVersion(bucket, key, versionID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[objectPath(bucket, key)+"@"+versionID] = append([]byte(nil), data...)
}

// FailWith queues classified errors for the object. Each GetObject call
// consumes one queued code before the seeded content becomes reachable.
func (s *MemoryStore) FailWith(bucket, key string, codes ...Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := objectPath(bucket, key)
	s.failures[path] = append(s.failures[path], codes...)
}

// Calls returns how many GetObject calls were made for the object.
func (s *MemoryStore) Calls(bucket, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[objectPath(bucket, key)]
}

// GetObject returns seeded content, or the next scripted error.
func (s *MemoryStore) GetObject(_ context.Context, bucket, key string, opts GetOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := objectPath(bucket, key)
	s.calls[path]++

	if queue := s.failures[path]; len(queue) > 0 {
		code := queue[0]
		s.failures[path] = queue[1:]
		return nil, NewError(code, bucket, key, fmt.Errorf("scripted %s", code))
	}

	if opts.VersionID != "" {
		data, ok := s.versions[path+"@"+opts.VersionID]
		if !ok {
			return nil, NewError(CodeNoSuchKey, bucket, key, fmt.Errorf("version %s not found", opts.VersionID))
		}
		return append([]byte(nil), data...), nil
	}

	data, ok := s.objects[path]
	if !ok {
		return nil, NewError(CodeNoSuchKey, bucket, key, fmt.Errorf("object not found"))
	}
	return append([]byte(nil), data...), nil
}
