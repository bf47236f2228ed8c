// Package cache holds the page currently being served.
package cache

import "sync/atomic"

// Cache is a single-writer, many-reader holder for the built page. Readers
// never block and always see a complete value; Set replaces the whole
// snapshot at once.
type Cache struct {
	page atomic.Pointer[string]
}

// New returns a cache holding initial.
func New(initial string) *Cache {
	c := &Cache{}
	c.Set(initial)

	return c
}

// Get returns the current page.
func (c *Cache) Get() string {
	p := c.page.Load()
	if p == nil {
		return ""
	}

	return *p
}

// Set replaces the current page.
func (c *Cache) Set(page string) {
	c.page.Store(&page)
}
