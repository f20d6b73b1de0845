//go:build unit

package pages

import (
	"context"
	"errors"
	"go-cms-app/internal/data"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(pages *fakePages, groups *fakeGroups, perms PermissionChecker) *Resolver {
	return NewResolver(NewCache(pages), groups, perms)
}

func TestCache_PreloadLoadsOnce(t *testing.T) {
	pages := &fakePages{pages: []*data.Page{{ID: 1, Parent: 0}, {ID: 2, Parent: 1}}}
	cache := NewCache(pages)
	ctx := context.Background()

	p, err := cache.Preload(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(1), p.Parent)

	missing, err := cache.Preload(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	ids, err := cache.ChildPageIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
	assert.Equal(t, 1, pages.findAllCalls)
	assert.Zero(t, pages.findByIDCalls)

	cache.Clear()
	_, err = cache.Preload(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, pages.findAllCalls)
}

func TestCache_PropagatesStoreErrors(t *testing.T) {
	pages := &fakePages{err: errors.New("connection refused")}
	_, err := NewCache(pages).Preload(context.Background(), 1)
	assert.Error(t, err)
}

func TestResolver_ChildPagesStableByOrder(t *testing.T) {
	pages := &fakePages{pages: []*data.Page{
		{ID: 99, Parent: data.RootParent},
		{ID: 3, Parent: 99, Order: 10},
		{ID: 1, Parent: 99, Order: 10},
		{ID: 2, Parent: 99, Order: 5},
	}}
	r := newTestResolver(pages, newFakeGroups(pages), nil)

	children, err := r.ChildPages(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, data.RecordIDs(children))
}

func TestResolver_CategoryMembersOfContainerAreMemoized(t *testing.T) {
	pages := &fakePages{pages: []*data.Page{
		{ID: 10, Parent: 0, GroupContainer: 1},
		{ID: 11, Parent: data.RootParent, Live: true},
		{ID: 12, Parent: data.RootParent},
	}}
	groups := newFakeGroups(pages)
	groups.groups[1] = &data.PageGroup{ID: 1, Name: "News"}
	groups.items[1] = []int64{12, 11}
	r := newTestResolver(pages, groups, nil)
	ctx := context.Background()

	first, err := r.CategoryMembers(ctx, 10, false)
	require.NoError(t, err)
	second, err := r.CategoryMembers(ctx, 10, false)
	require.NoError(t, err)

	assert.Equal(t, []int64{12, 11}, data.RecordIDs(first))
	require.Len(t, second, 2)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, 1, groups.itemIDsCalls)

	live, err := r.CategoryMembers(ctx, 10, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, data.RecordIDs(live))
	assert.Equal(t, 2, groups.itemIDsCalls)
}

func TestResolver_CategoryMembersLiveFilterKeepsOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	pages := &fakePages{pages: []*data.Page{
		{ID: 1, Parent: 0},
		{ID: 2, Parent: 1, Order: 1, Live: true},
		{ID: 3, Parent: 1, Order: 2},
		{ID: 4, Parent: 1, Order: 3, LiveStart: &past},
		{ID: 5, Parent: 1, Order: 4, LiveStart: &future},
	}}
	r := newTestResolver(pages, newFakeGroups(pages), nil)
	r.SetClock(func() time.Time { return now })
	ctx := context.Background()

	all, err := r.CategoryMembers(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4, 5}, data.RecordIDs(all))

	live, err := r.CategoryMembers(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, data.RecordIDs(live))

	_, err = r.CategoryMembers(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, pages.findAllCalls)
}

func TestResolver_CategoryMembersMissingGroupIsEmpty(t *testing.T) {
	pages := &fakePages{pages: []*data.Page{{ID: 10, Parent: 0, GroupContainer: 7}}}
	r := newTestResolver(pages, newFakeGroups(pages), nil)

	members, err := r.CategoryMembers(context.Background(), 10, false)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestResolver_ParentCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("root page without groups", func(t *testing.T) {
		pages := &fakePages{pages: []*data.Page{{ID: 1, Parent: data.RootParent}}}
		r := newTestResolver(pages, newFakeGroups(pages), nil)

		candidates, err := r.ParentCandidates(ctx, pages.pages[0])
		require.NoError(t, err)
		assert.Equal(t, []Candidate{{PageID: -1, Priority: 100}}, candidates)
		assert.True(t, IsRoot(candidates))
	})

	t.Run("explicit parent only", func(t *testing.T) {
		pages := &fakePages{pages: []*data.Page{{ID: 1, Parent: 5}}}
		r := newTestResolver(pages, newFakeGroups(pages), nil)

		candidates, err := r.ParentCandidates(ctx, pages.pages[0])
		require.NoError(t, err)
		assert.Equal(t, []Candidate{{PageID: 5, Priority: 100}}, candidates)
		assert.False(t, IsRoot(candidates))
	})

	t.Run("opaque marker is not a parent", func(t *testing.T) {
		pages := &fakePages{pages: []*data.Page{{ID: 1, Parent: -3}}}
		r := newTestResolver(pages, newFakeGroups(pages), nil)

		candidates, err := r.ParentCandidates(ctx, pages.pages[0])
		require.NoError(t, err)
		assert.True(t, IsRoot(candidates))
		assert.Equal(t, int64(-3), pages.pages[0].Parent)
	})

	t.Run("groups merge and keep the highest weight", func(t *testing.T) {
		page := &data.Page{ID: 9, Parent: 5}
		pages := &fakePages{pages: []*data.Page{page}}
		groups := newFakeGroups(pages)
		groups.groups[1] = &data.PageGroup{ID: 1, Name: "A", URLPriority: 50}
		groups.groups[2] = &data.PageGroup{ID: 2, Name: "B", URLPriority: 70}
		groups.memberships[9] = []int64{1, 2}
		groups.items[1] = []int64{9}
		groups.items[2] = []int64{9}
		groups.containers[1] = []data.ContainerPage{{ID: 20}, {ID: 21, PriorityOverride: 200}}
		groups.containers[2] = []data.ContainerPage{{ID: 20}, {ID: 5, PriorityOverride: 30}}
		r := newTestResolver(pages, groups, nil)

		candidates, err := r.ParentCandidates(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, []Candidate{
			{PageID: 21, Priority: 200},
			{PageID: 5, Priority: 100},
			{PageID: 20, Priority: 70},
		}, candidates)
	})

	t.Run("equal weights keep discovery order", func(t *testing.T) {
		page := &data.Page{ID: 9, Parent: data.RootParent}
		pages := &fakePages{pages: []*data.Page{page}}
		groups := newFakeGroups(pages)
		groups.groups[1] = &data.PageGroup{ID: 1, URLPriority: 10}
		groups.memberships[9] = []int64{1}
		groups.items[1] = []int64{9}
		groups.containers[1] = []data.ContainerPage{{ID: 31}, {ID: 30}}
		r := newTestResolver(pages, groups, nil)

		candidates, err := r.ParentCandidates(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, []Candidate{{PageID: 31, Priority: 10}, {PageID: 30, Priority: 10}}, candidates)
	})
}

func TestResolver_GroupHelpersDeduplicate(t *testing.T) {
	page := &data.Page{ID: 1, Parent: 0}
	pages := &fakePages{pages: []*data.Page{page}}
	groups := newFakeGroups(pages)
	groups.groups[1] = &data.PageGroup{ID: 1, Name: "A", ItemName: "Article"}
	groups.groups[2] = &data.PageGroup{ID: 2, Name: "B", ItemName: "Post"}
	groups.memberships[1] = []int64{1, 1, 2}
	r := newTestResolver(pages, groups, nil)
	ctx := context.Background()

	ids, err := r.GroupIDs(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	names, err := r.GroupNames(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	itemNames, err := r.GroupItemsNames(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Article", "Post"}, itemNames)

	assert.Equal(t, 1, groups.pageGroupsCalls)
}

func TestResolver_CanDuplicate(t *testing.T) {
	ctx := context.Background()
	page := &data.Page{ID: 1, Parent: 5}
	pages := &fakePages{pages: []*data.Page{page}}
	groups := newFakeGroups(pages)
	groups.groups[1] = &data.PageGroup{ID: 1}
	groups.memberships[1] = []int64{1}
	groups.containers[1] = []data.ContainerPage{{ID: 20}, {ID: 21}}

	ok, err := newTestResolver(pages, groups, nil).CanDuplicate(ctx, page)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = newTestResolver(pages, groups, denyPages{20: true}).CanDuplicate(ctx, page)
	require.NoError(t, err)
	assert.True(t, ok, "one writable container is enough")

	ok, err = newTestResolver(pages, groups, denyPages{20: true, 21: true}).CanDuplicate(ctx, page)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = newTestResolver(pages, groups, denyPages{5: true}).CanDuplicate(ctx, page)
	require.NoError(t, err)
	assert.False(t, ok)

	root := &data.Page{ID: 2, Parent: data.RootParent}
	ok, err = newTestResolver(pages, groups, denyPages{5: true}).CanDuplicate(ctx, root)
	require.NoError(t, err)
	assert.True(t, ok)
}
