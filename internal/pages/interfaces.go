// Package pages resolves the page hierarchy: ranked parents, ordered children,
// group container listings, path-sorted page lists and the cascading deletion
// of a page subtree.
package pages

import (
	"context"
	"errors"
	"go-cms-app/internal/data"
)

// ErrPageNotFound is returned by callers that require a page to exist.
// The engines in this package report absence with nil results instead.
var ErrPageNotFound = errors.New("page not found")

// PageSource is the page repository.
type PageSource interface {
	FindByID(ctx context.Context, id int64) (*data.Page, error)
	FindAll(ctx context.Context) ([]*data.Page, error)
	FindByParent(ctx context.Context, parentID int64) ([]*data.Page, error)
	Count(ctx context.Context, includeGroup bool) (int, error)
}

// GroupProvider gives access to page groups and their memberships.
type GroupProvider interface {
	Find(ctx context.Context, groupID int64) (*data.PageGroup, error)
	// PageGroups returns the groups of a page in attachment order, duplicates included.
	PageGroups(ctx context.Context, pageID int64) ([]*data.PageGroup, error)
	ItemPageIDs(ctx context.Context, group *data.PageGroup, containerID int64, liveOnly bool) ([]int64, error)
	ItemPages(ctx context.Context, group *data.PageGroup, containerID int64) ([]*data.Page, error)
	ContainerPages(ctx context.Context, group *data.PageGroup, pageID int64) ([]data.ContainerPage, error)
	Containers(ctx context.Context, group *data.PageGroup) ([]*data.Page, error)
}

// Path is a resolved url and display name for a page.
type Path struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// PathBuilder resolves full paths. Ids without a path are absent from the
// result or map to nil.
type PathBuilder interface {
	FullPaths(ctx context.Context, ids []int64, languageID int64) (map[int64]*Path, error)
	FullPathsVariations(ctx context.Context, ids []int64, languageID int64) (map[int64]*Path, error)
}

// PermissionChecker decides whether the current subject may perform action on a page.
type PermissionChecker interface {
	CanPerform(ctx context.Context, action string, pageID int64) bool
}

// AuditLog creates admin log entries.
type AuditLog interface {
	NewEntry(ctx context.Context, message string) (int64, error)
}

// BackupWriter stores a backup of records under an admin log entry.
type BackupWriter interface {
	Write(ctx context.Context, logID int64, kind data.RecordKind, records interface{}) error
}

// LanguageProvider returns the active language.
type LanguageProvider interface {
	CurrentLanguageID(ctx context.Context) int64
}

// BlockTypeRegistry lists block types.
type BlockTypeRegistry interface {
	RepeaterBlockTypeIDs(ctx context.Context) ([]int64, error)
}

// ContentStore reads and removes the records that depend on a page.
type ContentStore interface {
	Versions(ctx context.Context, pageID int64) ([]data.PageVersion, error)
	Languages(ctx context.Context, pageID int64) ([]data.PageLang, error)
	Blocks(ctx context.Context, pageID int64) ([]data.PageBlock, error)
	MenuItems(ctx context.Context, pageID int64) ([]data.MenuItem, error)
	RoleActions(ctx context.Context, pageID int64) ([]data.RolePageAction, error)
	PublishRequests(ctx context.Context, versionIDs []int64) ([]data.PublishRequest, error)
	RepeaterRows(ctx context.Context, repeaterIDs []int64) ([]data.RepeaterRow, error)
	RepeaterData(ctx context.Context, rowIDs []int64) ([]data.RepeaterData, error)
	Delete(ctx context.Context, kind data.RecordKind, ids []int64) error
	DeleteSearchData(ctx context.Context, pageID int64) error
	Replace(ctx context.Context, kind data.RecordKind, fields map[string]interface{}) error
}

// StaticLanguage is a LanguageProvider that always returns the same language.
type StaticLanguage int64

// CurrentLanguageID implements LanguageProvider.
func (l StaticLanguage) CurrentLanguageID(context.Context) int64 {
	return int64(l)
}

// AllowAll is a PermissionChecker that permits everything.
type AllowAll struct{}

// CanPerform implements PermissionChecker.
func (AllowAll) CanPerform(context.Context, string, int64) bool {
	return true
}
