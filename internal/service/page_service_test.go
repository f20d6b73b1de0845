//go:build integration

package service

import (
	"context"
	"os"
	"testing"

	"go-cms-app/internal/cache"
	"go-cms-app/internal/config"
	"go-cms-app/internal/data"
	"go-cms-app/internal/logger"
	"go-cms-app/internal/pages"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc   *PageService
	store *data.Store
	db    *sqlx.DB
	ctx   context.Context
}

// setupService builds a PageService over an in-memory database holding
// Home (1), About (2) and Team (3) under About.
func setupService(t *testing.T, withCache bool) *serviceFixture {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	schema, err := os.ReadFile("../../testdata/sqlite_schema.sql")
	require.NoError(t, err)
	db.MustExec(string(schema))
	t.Cleanup(func() { db.Close() })

	store := data.NewStore(db)
	ctx := data.WithActor(context.Background(), "editor@example.com")
	for _, seed := range []struct {
		parent int64
		url    string
		name   string
	}{
		{0, "/", "Home"},
		{0, "about", "About"},
		{2, "team", "Team"},
	} {
		page := &data.Page{Parent: seed.parent}
		require.NoError(t, store.Pages.Save(ctx, page))
		require.NoError(t, store.Langs.Save(ctx, &data.PageLang{PageID: page.ID, LanguageID: 1, URL: seed.url, Name: seed.name}))
	}

	var listings ListingCache
	if withCache {
		c, err := cache.New(config.CacheConfig{FilePath: "file::memory:"})
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		listings = c
	}

	svc := NewPageService(store, listings, pages.AllowAll{}, pages.StaticLanguage(1), config.SiteConfig{PageLimit: 2}, logger.Nop())
	return &serviceFixture{svc: svc, store: store, db: db, ctx: ctx}
}

func entryNames(entries []pages.ListEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestPageService_ListPages(t *testing.T) {
	f := setupService(t, false)

	entries, err := f.svc.ListPages(f.ctx, pages.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []pages.ListEntry{
		{ID: 2, Name: "About", URL: "/about"},
		{ID: 3, Name: "About » Team", URL: "/about/team"},
		{ID: 1, Name: "Home", URL: "/"},
	}, entries)

	_, err = f.svc.ListPages(f.ctx, pages.ListOptions{LanguageID: -1})
	assert.Error(t, err)
}

func TestPageService_ListPagesServedFromCacheUntilDelete(t *testing.T) {
	f := setupService(t, true)

	first, err := f.svc.ListPages(f.ctx, pages.ListOptions{ExcludeHome: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"About", "About » Team"}, entryNames(first))

	// Written behind the service's back, so only a fresh listing sees it.
	extra := &data.Page{Parent: 0}
	require.NoError(t, f.store.Pages.Save(f.ctx, extra))
	require.NoError(t, f.store.Langs.Save(f.ctx, &data.PageLang{PageID: extra.ID, LanguageID: 1, URL: "contact", Name: "Contact"}))

	cached, err := f.svc.ListPages(f.ctx, pages.ListOptions{ExcludeHome: true})
	require.NoError(t, err)
	assert.Equal(t, entryNames(first), entryNames(cached))

	_, err = f.svc.DeletePage(f.ctx, 3)
	require.NoError(t, err)

	fresh, err := f.svc.ListPages(f.ctx, pages.ListOptions{ExcludeHome: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"About", "Contact"}, entryNames(fresh))
}

func TestPageService_DeleteAndRestore(t *testing.T) {
	f := setupService(t, true)

	logIDs, err := f.svc.DeletePage(f.ctx, 2)
	require.NoError(t, err)
	require.Len(t, logIDs, 2)
	assert.Less(t, logIDs[0], logIDs[1])

	var messages []string
	require.NoError(t, f.db.Select(&messages, "SELECT log FROM admin_logs ORDER BY id"))
	assert.Equal(t, []string{"Page 'About' deleted (Page ID 2)", "Page 'Team' deleted (Page ID 3)"}, messages)

	var actors []string
	require.NoError(t, f.db.Select(&actors, "SELECT DISTINCT user_id FROM admin_logs"))
	assert.Equal(t, []string{"editor@example.com"}, actors)

	remaining, err := f.svc.ListPages(f.ctx, pages.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home"}, entryNames(remaining))

	for _, logID := range logIDs {
		restored, err := f.svc.RestoreLog(f.ctx, logID)
		require.NoError(t, err)
		// page and language row
		assert.Equal(t, 2, restored)
	}

	back, err := f.svc.ListPages(f.ctx, pages.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"About", "About » Team", "Home"}, entryNames(back))
}

func TestPageService_DeleteUnknownPage(t *testing.T) {
	f := setupService(t, false)

	_, err := f.svc.DeletePage(f.ctx, 99)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)

	var logs int
	require.NoError(t, f.db.Get(&logs, "SELECT COUNT(*) FROM admin_logs"))
	assert.Zero(t, logs)
}

func TestPageService_RestoreUnknownLog(t *testing.T) {
	f := setupService(t, false)

	_, err := f.svc.RestoreLog(f.ctx, 42)
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestPageService_PageDetails(t *testing.T) {
	f := setupService(t, false)
	f.db.MustExec("INSERT INTO page_group (name, item_name, url_priority) VALUES ('News', 'Article', 50)")
	require.NoError(t, f.store.Groups.AddPage(f.ctx, 1, 3))

	details, err := f.svc.Page(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), details.Page.ID)
	assert.Equal(t, []int64{1}, details.GroupIDs)
	assert.Equal(t, []string{"News"}, details.GroupNames)
	assert.Equal(t, []string{"Article"}, details.GroupItemsNames)
	assert.Equal(t, []pages.Candidate{{PageID: 2, Priority: 100}}, details.Parents)
	// News has no container a copy could be added to.
	assert.False(t, details.CanDuplicate)

	home, err := f.svc.Page(f.ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, home.GroupIDs)
	assert.True(t, home.CanDuplicate)

	_, err = f.svc.Page(f.ctx, 99)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
}

func TestPageService_ChildrenAndParents(t *testing.T) {
	f := setupService(t, false)

	children, err := f.svc.Children(f.ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, int64(3), children[0].ID)

	live, err := f.svc.Children(f.ctx, 2, true)
	require.NoError(t, err)
	assert.Empty(t, live)

	parents, err := f.svc.Parents(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []pages.Candidate{{PageID: 2, Priority: 100}}, parents)

	_, err = f.svc.Children(f.ctx, 99, false)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
	_, err = f.svc.Parents(f.ctx, 99)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
}

func TestPageService_Totals(t *testing.T) {
	f := setupService(t, false)

	totals, err := f.svc.Totals(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &Totals{All: 3, TopLevel: 2, Limit: 2, AtLimit: true}, totals)
}
