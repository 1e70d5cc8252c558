package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultTTL is used when New is given a non-positive ttl
const DefaultTTL = 24 * time.Hour

// Service implements an LRU cache with per-entry expiry
type Service[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element // Map key to list element
	lruList *list.List               // LRU list for eviction
	now     func() time.Time

	hits   int
	misses int
}

// cacheEntry holds a cached value with metadata
type cacheEntry[V any] struct {
	key       string
	value     V
	timestamp time.Time
}

// New creates a new cache service
func New[V any](maxSize int, ttl time.Duration) *Service[V] {
	if maxSize <= 0 {
		maxSize = 100 // Default cache size
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service[V]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		lruList: list.New(),
		now:     time.Now,
	}
}

// Get retrieves a value by key
func (s *Service[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	elem, exists := s.entries[key]
	if !exists {
		s.misses++
		return zero, false
	}

	entry := elem.Value.(*cacheEntry[V])
	if s.now().Sub(entry.timestamp) > s.ttl {
		// Entry is stale, remove it
		s.removeElement(elem)
		s.misses++
		return zero, false
	}

	s.lruList.MoveToFront(elem)
	s.hits++
	return entry.value, true
}

// Set caches a value under key
func (s *Service[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.entries[key]; exists {
		entry := elem.Value.(*cacheEntry[V])
		entry.value = value
		entry.timestamp = s.now()
		s.lruList.MoveToFront(elem)
		return
	}

	elem := s.lruList.PushFront(&cacheEntry[V]{
		key:       key,
		value:     value,
		timestamp: s.now(),
	})
	s.entries[key] = elem

	s.enforceMaxSize()
}

// Delete removes a single key
func (s *Service[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.entries[key]; exists {
		s.removeElement(elem)
	}
}

// enforceMaxSize removes old entries if cache exceeds max size
func (s *Service[V]) enforceMaxSize() {
	for s.lruList.Len() > s.maxSize {
		elem := s.lruList.Back()
		if elem == nil {
			return
		}
		s.removeElement(elem)
	}
}

// removeElement drops an entry from the map and the list (must hold lock)
func (s *Service[V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry[V])
	delete(s.entries, entry.key)
	s.lruList.Remove(elem)
}

// Clear removes all entries from the cache
func (s *Service[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.lruList = list.New()
}

// Size returns the current cache size
func (s *Service[V]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lruList.Len()
}

// Stats returns cache statistics
func (s *Service[V]) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{
		Size:    s.lruList.Len(),
		MaxSize: s.maxSize,
		Hits:    s.hits,
		Misses:  s.misses,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}
