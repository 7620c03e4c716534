package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"vsm/internal/domain"
)

// QueryCache is an LRU cache of search responses with a TTL. Invalidate bumps
// the index generation so entries computed against an older index are never
// served.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time
}

type cacheEntry struct {
	response  *domain.SearchResponse
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(req domain.SearchRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.TopK)))
	h.Write([]byte{0})
	if req.MinScore != nil {
		h.Write([]byte(strconv.FormatFloat(*req.MinScore, 'g', -1, 64)))
	} else {
		h.Write([]byte("-"))
	}
	h.Write([]byte{0})
	h.Write([]byte(req.Match))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func (c *QueryCache) Get(req domain.SearchRequest) (*domain.SearchResponse, bool) {
	key := cacheKey(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.response, true
}

func (c *QueryCache) Put(req domain.SearchRequest, response *domain.SearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(req)
	entry := &cacheEntry{
		response:  response,
		timestamp: c.now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Call it after the index changes.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

type Retriever interface {
	Retrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// Recorder is notified of hits and misses.
type Recorder interface {
	CacheHit()
	CacheMiss()
}

type CachedRetriever struct {
	retriever Retriever
	cache     *QueryCache
	recorder  Recorder
}

func NewCachedRetriever(retriever Retriever, cache *QueryCache, recorder Recorder) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
		recorder:  recorder,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if resp, hit := r.cache.Get(req); hit {
		if r.recorder != nil {
			r.recorder.CacheHit()
		}
		return resp, nil
	}
	if r.recorder != nil {
		r.recorder.CacheMiss()
	}

	resp, err := r.retriever.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	r.cache.Put(req, resp)
	return resp, nil
}

// Invalidate clears the underlying cache.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
