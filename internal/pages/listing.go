package pages

import (
	"context"
	"fmt"
	"go-cms-app/internal/data"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ListOptions narrows ListPages. The zero value lists the whole tree in the
// current language, link pages and group pages included.
type ListOptions struct {
	ExcludeLinks      bool   `json:"exclude_links"`
	ExcludeGroupPages bool   `json:"exclude_group_pages"`
	ExcludeHome       bool   `json:"exclude_home"`
	LanguageID        int64  `json:"language_id"`
	ParentID          *int64 `json:"parent_id"`
}

// Validate checks the option values.
func (o ListOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.LanguageID, validation.Min(int64(0))),
		validation.Field(&o.ParentID, validation.Min(int64(0))),
	)
}

// ListEntry is one line of a page list.
type ListEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Lister builds permission-checked, path-sorted page lists.
type Lister struct {
	pages     PageSource
	groups    GroupProvider
	paths     PathBuilder
	perms     PermissionChecker
	languages LanguageProvider

	// AdvancedPermissions enables the per-page "pages" permission filter.
	AdvancedPermissions bool
}

// NewLister creates a Lister. A nil PermissionChecker permits everything.
func NewLister(pages PageSource, groups GroupProvider, paths PathBuilder, perms PermissionChecker, languages LanguageProvider) *Lister {
	if perms == nil {
		perms = AllowAll{}
	}
	return &Lister{pages: pages, groups: groups, paths: paths, perms: perms, languages: languages}
}

// ListPages lists the pages in scope sorted by display name. Pages the subject
// may not see and pages without a resolvable path are left out.
func (l *Lister) ListPages(ctx context.Context, opts ListOptions) ([]ListEntry, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid list options: %w", err)
	}
	languageID := opts.LanguageID
	if languageID == 0 {
		languageID = l.languages.CurrentLanguageID(ctx)
	}

	candidates, err := l.scope(ctx, opts.ParentID)
	if err != nil {
		return nil, err
	}

	maxLink := 1
	if opts.ExcludeLinks {
		maxLink = 0
	}
	minParent := data.RootParent
	if opts.ExcludeGroupPages {
		minParent = 0
	}

	var ids []int64
	for _, page := range candidates {
		if l.AdvancedPermissions && !l.perms.CanPerform(ctx, "pages", page.ID) {
			continue
		}
		if page.Link <= maxLink && page.Parent >= minParent {
			ids = append(ids, page.ID)
		}
	}
	if len(ids) == 0 {
		return []ListEntry{}, nil
	}

	var paths map[int64]*Path
	if opts.ExcludeGroupPages {
		paths, err = l.paths.FullPaths(ctx, ids, languageID)
	} else {
		paths, err = l.paths.FullPathsVariations(ctx, ids, languageID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve page paths: %w", err)
	}

	entries := make([]ListEntry, 0, len(paths))
	for _, id := range ids {
		path := paths[id]
		if path == nil || path.URL == "" {
			continue
		}
		if opts.ExcludeHome && path.URL == "/" {
			continue
		}
		entries = append(entries, ListEntry{ID: id, Name: path.Name, URL: path.URL})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// scope returns the pages a listing starts from.
func (l *Lister) scope(ctx context.Context, parentID *int64) ([]*data.Page, error) {
	if parentID == nil {
		return l.pages.FindAll(ctx)
	}
	parent, err := l.pages.FindByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		if *parentID == 0 {
			return l.pages.FindByParent(ctx, 0)
		}
		return nil, nil
	}
	if parent.IsGroupContainer() {
		group, err := l.groups.Find(ctx, parent.GroupContainer)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, nil
		}
		return l.groups.ItemPages(ctx, group, parent.ID)
	}
	return l.pages.FindByParent(ctx, parent.ID)
}

// Total counts non-link pages; without includeGroup only top-level pages that
// are not group containers count.
func (l *Lister) Total(ctx context.Context, includeGroup bool) (int, error) {
	return l.pages.Count(ctx, includeGroup)
}

// AtLimit reports whether the top-level page count has reached limit. A zero
// limit never binds.
func (l *Lister) AtLimit(ctx context.Context, limit int) (bool, error) {
	if limit == 0 {
		return false, nil
	}
	total, err := l.Total(ctx, false)
	if err != nil {
		return false, err
	}
	return total >= limit, nil
}
