package importer

import (
	"strings"

	"github.com/invenlab/activos/internal/store"
)

// CategoryCache holds the categories known at the start of an import run.
// Lookups are case-insensitive; the casing stored on Add is whatever the
// first-seen row carried. The cache lives for one run only and is passed
// explicitly into the validator and importer, so concurrent runs in the
// same process cannot interfere.
type CategoryCache struct {
	byFold map[string]store.Category
}

// NewCategoryCache builds a cache from the current category list.
func NewCategoryCache(cats []store.Category) *CategoryCache {
	c := &CategoryCache{byFold: make(map[string]store.Category, len(cats))}
	for _, cat := range cats {
		c.byFold[strings.ToLower(cat.Name)] = cat
	}
	return c
}

// Contains reports whether a category with this name exists, ignoring case.
func (c *CategoryCache) Contains(name string) bool {
	_, ok := c.byFold[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Add records a newly created category so later rows in the same run see it.
func (c *CategoryCache) Add(cat store.Category) {
	c.byFold[strings.ToLower(cat.Name)] = cat
}

// Len returns how many distinct category names the cache knows.
func (c *CategoryCache) Len() int { return len(c.byFold) }
