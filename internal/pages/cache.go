package pages

import (
	"context"
	"fmt"
	"go-cms-app/internal/data"
)

type memberKey struct {
	pageID   int64
	liveOnly bool
}

// Cache memoizes pages for the lifetime of one request or operation. It is not
// safe for concurrent use and is never invalidated by writes; create a new one
// (or Clear it) per request.
type Cache struct {
	source PageSource

	loaded   bool
	pages    map[int64]*data.Page
	children map[int64][]int64
	members  map[memberKey][]*data.Page
	groups   map[int64][]*data.PageGroup
}

// NewCache creates an empty cache backed by source.
func NewCache(source PageSource) *Cache {
	c := &Cache{source: source}
	c.Clear()
	return c
}

// Clear drops everything memoized so far.
func (c *Cache) Clear() {
	c.loaded = false
	c.pages = make(map[int64]*data.Page)
	c.children = nil
	c.members = make(map[memberKey][]*data.Page)
	c.groups = make(map[int64][]*data.PageGroup)
}

// Preload returns the page with the given id, loading every page in one fetch
// on first use. A missing page returns nil without error.
func (c *Cache) Preload(ctx context.Context, id int64) (*data.Page, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.pages[id], nil
}

// ChildPageIDs returns the ids whose parent column equals parentID, in storage order.
func (c *Cache) ChildPageIDs(ctx context.Context, parentID int64) ([]int64, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.children[parentID], nil
}

// CategoryPages returns the memoized listing for (pageID, liveOnly), computing
// it with resolve on first request.
func (c *Cache) CategoryPages(ctx context.Context, pageID int64, liveOnly bool, resolve func(ctx context.Context) ([]*data.Page, error)) ([]*data.Page, error) {
	key := memberKey{pageID: pageID, liveOnly: liveOnly}
	if pages, ok := c.members[key]; ok {
		return pages, nil
	}
	pages, err := resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.members[key] = pages
	return pages, nil
}

// PageGroups returns the memoized group memberships of a page.
func (c *Cache) PageGroups(ctx context.Context, pageID int64, resolve func(ctx context.Context) ([]*data.PageGroup, error)) ([]*data.PageGroup, error) {
	if groups, ok := c.groups[pageID]; ok {
		return groups, nil
	}
	groups, err := resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.groups[pageID] = groups
	return groups, nil
}

func (c *Cache) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	all, err := c.source.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("preload pages: %w", err)
	}
	c.children = make(map[int64][]int64)
	for _, p := range all {
		c.pages[p.ID] = p
		c.children[p.Parent] = append(c.children[p.Parent], p.ID)
	}
	c.loaded = true
	return nil
}
