package pages

import (
	"context"
	"go-cms-app/internal/data"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// PathNameSeparator joins the names of a path's pages.
const PathNameSeparator = " » "

// LanguageSource returns the per-language rows of all pages for one language.
type LanguageSource interface {
	PageLangs(ctx context.Context, languageID int64) (map[int64]data.PageLang, error)
}

type pathKey struct {
	pageID     int64
	languageID int64
	variations bool
}

// TreePaths builds paths from per-language url segments. Canonical paths follow
// explicit parents only; variation paths follow the highest ranked parent
// candidate that itself resolves, so group items get a path through their
// containers. Like the Resolver it belongs to one request.
type TreePaths struct {
	resolver *Resolver
	langs    LanguageSource
	policy   *bluemonday.Policy

	rows  map[int64]map[int64]data.PageLang
	paths map[pathKey]*Path
}

// NewTreePaths creates a TreePaths reading pages through resolver.
func NewTreePaths(resolver *Resolver, langs LanguageSource) *TreePaths {
	return &TreePaths{
		resolver: resolver,
		langs:    langs,
		policy:   bluemonday.StrictPolicy(),
		rows:     make(map[int64]map[int64]data.PageLang),
		paths:    make(map[pathKey]*Path),
	}
}

// FullPaths implements PathBuilder.
func (t *TreePaths) FullPaths(ctx context.Context, ids []int64, languageID int64) (map[int64]*Path, error) {
	return t.fullPaths(ctx, ids, languageID, false)
}

// FullPathsVariations implements PathBuilder.
func (t *TreePaths) FullPathsVariations(ctx context.Context, ids []int64, languageID int64) (map[int64]*Path, error) {
	return t.fullPaths(ctx, ids, languageID, true)
}

func (t *TreePaths) fullPaths(ctx context.Context, ids []int64, languageID int64, variations bool) (map[int64]*Path, error) {
	paths := make(map[int64]*Path, len(ids))
	for _, id := range ids {
		path, _, err := t.path(ctx, id, languageID, variations, make(map[int64]bool))
		if err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, nil
}

// path resolves the path of pageID. The returned flag reports that a page on
// the way was already being visited; such results depend on where the walk
// started and are not memoized.
func (t *TreePaths) path(ctx context.Context, pageID, languageID int64, variations bool, visiting map[int64]bool) (*Path, bool, error) {
	key := pathKey{pageID: pageID, languageID: languageID, variations: variations}
	if path, ok := t.paths[key]; ok {
		return path, false, nil
	}
	if visiting[pageID] {
		return nil, true, nil
	}
	visiting[pageID] = true
	defer delete(visiting, pageID)

	page, err := t.resolver.Cache().Preload(ctx, pageID)
	if err != nil {
		return nil, false, err
	}
	rows, err := t.languageRows(ctx, languageID)
	if err != nil {
		return nil, false, err
	}
	row, ok := rows[pageID]
	if page == nil || !ok {
		t.paths[key] = nil
		return nil, false, nil
	}

	var parents []int64
	if variations {
		candidates, err := t.resolver.ParentCandidates(ctx, page)
		if err != nil {
			return nil, false, err
		}
		for _, c := range candidates {
			parents = append(parents, c.PageID)
		}
	} else {
		parents = []int64{page.Parent}
	}

	var resolved *Path
	cyclic := false
	for _, parentID := range parents {
		switch {
		case parentID == 0:
			resolved = &Path{}
		case parentID > 0:
			var hit bool
			resolved, hit, err = t.path(ctx, parentID, languageID, variations, visiting)
			if err != nil {
				return nil, false, err
			}
			cyclic = cyclic || hit
		}
		if resolved != nil {
			break
		}
	}

	var path *Path
	if resolved != nil {
		path = &Path{URL: joinURL(resolved.URL, row.URL), Name: t.cleanName(row.Name)}
		if resolved.Name != "" {
			path.Name = resolved.Name + PathNameSeparator + path.Name
		}
	}
	if !cyclic {
		t.paths[key] = path
	}
	return path, cyclic, nil
}

func (t *TreePaths) languageRows(ctx context.Context, languageID int64) (map[int64]data.PageLang, error) {
	if rows, ok := t.rows[languageID]; ok {
		return rows, nil
	}
	rows, err := t.langs.PageLangs(ctx, languageID)
	if err != nil {
		return nil, err
	}
	t.rows[languageID] = rows
	return rows, nil
}

func (t *TreePaths) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(name)))
}

// joinURL appends segment to base; the home segment "/" contributes nothing.
func joinURL(base, segment string) string {
	segment = strings.Trim(segment, "/")
	if segment == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + segment
}
