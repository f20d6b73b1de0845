package pages

import (
	"context"
	"fmt"
	"go-cms-app/internal/data"
	"sort"
	"time"
)

// ExplicitParentPriority is the weight of a page's own parent among its parent candidates.
const ExplicitParentPriority = 100

// Candidate is a possible parent of a page, weighted by priority (higher wins).
type Candidate struct {
	PageID   int64 `json:"id"`
	Priority int   `json:"priority"`
}

// rootCandidates is returned for pages with neither a parent nor a group container.
func rootCandidates() []Candidate {
	return []Candidate{{PageID: data.RootParent, Priority: ExplicitParentPriority}}
}

// IsRoot reports whether a candidate list means "no parent".
func IsRoot(candidates []Candidate) bool {
	return len(candidates) == 1 && candidates[0].PageID == data.RootParent
}

// Resolver answers hierarchy questions for one request.
type Resolver struct {
	cache  *Cache
	groups GroupProvider
	perms  PermissionChecker
	now    func() time.Time
}

// NewResolver creates a Resolver over a request-scoped cache. A nil
// PermissionChecker permits everything.
func NewResolver(cache *Cache, groups GroupProvider, perms PermissionChecker) *Resolver {
	if perms == nil {
		perms = AllowAll{}
	}
	return &Resolver{cache: cache, groups: groups, perms: perms, now: time.Now}
}

// SetClock replaces the time source used for live checks.
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// Cache returns the cache the resolver reads through.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// ChildPages returns the pages whose parent is parentID ordered by their order
// column; equal orders keep storage order.
func (r *Resolver) ChildPages(ctx context.Context, parentID int64) ([]*data.Page, error) {
	ids, err := r.cache.ChildPageIDs(ctx, parentID)
	if err != nil {
		return nil, err
	}
	children := make([]*data.Page, 0, len(ids))
	for _, id := range ids {
		page, err := r.cache.Preload(ctx, id)
		if err != nil {
			return nil, err
		}
		if page != nil {
			children = append(children, page)
		}
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Order < children[j].Order
	})
	return children, nil
}

// CategoryMembers returns the children of a page. Group containers list their
// group's items in the group's order; other pages list their child pages. With
// checkLive, pages that are not live are left out. Results are memoized per
// (pageID, checkLive) in the cache.
func (r *Resolver) CategoryMembers(ctx context.Context, pageID int64, checkLive bool) ([]*data.Page, error) {
	return r.cache.CategoryPages(ctx, pageID, checkLive, func(ctx context.Context) ([]*data.Page, error) {
		page, err := r.cache.Preload(ctx, pageID)
		if err != nil {
			return nil, err
		}
		if page != nil && page.IsGroupContainer() {
			return r.groupMembers(ctx, page, checkLive)
		}

		children, err := r.ChildPages(ctx, pageID)
		if err != nil {
			return nil, err
		}
		if !checkLive {
			return children, nil
		}
		now := r.now()
		live := make([]*data.Page, 0, len(children))
		for _, child := range children {
			if child.IsLive(now) {
				live = append(live, child)
			}
		}
		return live, nil
	})
}

func (r *Resolver) groupMembers(ctx context.Context, container *data.Page, checkLive bool) ([]*data.Page, error) {
	group, err := r.groups.Find(ctx, container.GroupContainer)
	if err != nil {
		return nil, fmt.Errorf("find group %d: %w", container.GroupContainer, err)
	}
	if group == nil {
		return []*data.Page{}, nil
	}
	ids, err := r.groups.ItemPageIDs(ctx, group, container.ID, checkLive)
	if err != nil {
		return nil, fmt.Errorf("list items of group %d: %w", group.ID, err)
	}
	members := make([]*data.Page, 0, len(ids))
	for _, id := range ids {
		page, err := r.cache.Preload(ctx, id)
		if err != nil {
			return nil, err
		}
		if page != nil {
			members = append(members, page)
		}
	}
	return members, nil
}

// ParentCandidates ranks the pages under which page may be located: its
// explicit parent (when parent >= 0) and every group container that lists it.
// A candidate reachable more than once keeps its highest weight. The result is
// sorted by priority descending, ties in discovery order, and is never empty.
func (r *Resolver) ParentCandidates(ctx context.Context, page *data.Page) ([]Candidate, error) {
	var candidates []Candidate
	index := make(map[int64]int)
	add := func(id int64, priority int) {
		if i, ok := index[id]; ok {
			if priority > candidates[i].Priority {
				candidates[i].Priority = priority
			}
			return
		}
		index[id] = len(candidates)
		candidates = append(candidates, Candidate{PageID: id, Priority: priority})
	}

	if page.Parent >= 0 {
		add(page.Parent, ExplicitParentPriority)
	}

	groups, err := r.uniqueGroups(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		containers, err := r.groups.ContainerPages(ctx, group, page.ID)
		if err != nil {
			return nil, fmt.Errorf("containers of group %d: %w", group.ID, err)
		}
		for _, container := range containers {
			priority := container.PriorityOverride
			if priority == 0 {
				priority = group.URLPriority
			}
			add(container.ID, priority)
		}
	}

	if len(candidates) == 0 {
		return rootCandidates(), nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates, nil
}

// GroupIDs returns the ids of the page's groups, deduplicated in attachment order.
func (r *Resolver) GroupIDs(ctx context.Context, page *data.Page) ([]int64, error) {
	groups, err := r.uniqueGroups(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(groups))
	for i, group := range groups {
		ids[i] = group.ID
	}
	return ids, nil
}

// GroupNames returns the distinct names of the page's groups in attachment order.
func (r *Resolver) GroupNames(ctx context.Context, page *data.Page) ([]string, error) {
	return r.groupStrings(ctx, page, func(g *data.PageGroup) string { return g.Name })
}

// GroupItemsNames returns the distinct item names of the page's groups in attachment order.
func (r *Resolver) GroupItemsNames(ctx context.Context, page *data.Page) ([]string, error) {
	return r.groupStrings(ctx, page, func(g *data.PageGroup) string { return g.ItemName })
}

// CanDuplicate reports whether a copy of page could be created where it
// stands: every group of the page must accept new items and, for pages with an
// explicit parent, adding under that parent must be permitted.
func (r *Resolver) CanDuplicate(ctx context.Context, page *data.Page) (bool, error) {
	groups, err := r.uniqueGroups(ctx, page.ID)
	if err != nil {
		return false, err
	}
	for _, group := range groups {
		ok, err := r.canAddItems(ctx, group)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return page.Parent < 0 || r.perms.CanPerform(ctx, "pages.add", page.Parent), nil
}

// canAddItems reports whether pages may be added to at least one container of the group.
func (r *Resolver) canAddItems(ctx context.Context, group *data.PageGroup) (bool, error) {
	containers, err := r.groups.Containers(ctx, group)
	if err != nil {
		return false, fmt.Errorf("containers of group %d: %w", group.ID, err)
	}
	for _, container := range containers {
		if r.perms.CanPerform(ctx, "pages.add", container.ID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) groupStrings(ctx context.Context, page *data.Page, value func(*data.PageGroup) string) ([]string, error) {
	groups, err := r.uniqueGroups(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(groups))
	values := make([]string, 0, len(groups))
	for _, group := range groups {
		v := value(group)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, nil
}

// uniqueGroups returns the page's groups with repeated memberships removed.
func (r *Resolver) uniqueGroups(ctx context.Context, pageID int64) ([]*data.PageGroup, error) {
	groups, err := r.cache.PageGroups(ctx, pageID, func(ctx context.Context) ([]*data.PageGroup, error) {
		groups, err := r.groups.PageGroups(ctx, pageID)
		if err != nil {
			return nil, fmt.Errorf("groups of page %d: %w", pageID, err)
		}
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(groups))
	unique := make([]*data.PageGroup, 0, len(groups))
	for _, group := range groups {
		if seen[group.ID] {
			continue
		}
		seen[group.ID] = true
		unique = append(unique, group)
	}
	return unique, nil
}
