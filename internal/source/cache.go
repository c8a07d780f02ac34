package source

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoises parsed documents by file name for the life of a run.
// Concurrent first loads of the same file share one parse.
type Cache struct {
	open  func(path string) (*Document, error)
	group singleflight.Group

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewCache returns a cache that parses documents with Open.
func NewCache() *Cache {
	return NewCacheWith(Open)
}

// NewCacheWith returns a cache backed by a custom loader.
func NewCacheWith(open func(path string) (*Document, error)) *Cache {
	return &Cache{
		open: open,
		docs: make(map[string]*Document),
	}
}

// Get returns the parsed document for path, loading it on first use.
func (c *Cache) Get(path string) (*Document, error) {
	c.mu.RLock()
	doc, ok := c.docs[path]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		c.mu.RLock()
		doc, ok := c.docs[path]
		c.mu.RUnlock()
		if ok {
			return doc, nil
		}

		doc, err := c.open(path)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.docs[path] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Len reports how many documents are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
