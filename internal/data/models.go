package data

import (
	"time"
)

// Parent sentinels stored in pages.parent.
const (
	// RootParent marks a page that has no explicit parent slot.
	RootParent int64 = -1
)

// Page represents a single node of the page tree.
//
// Parent values other than -1 that are negative are opaque markers written by
// other subsystems; they are read and written back without interpretation.
type Page struct {
	ID                        int64      `db:"id" json:"id"`
	Parent                    int64      `db:"parent" json:"parent"`
	GroupContainer            int64      `db:"group_container" json:"group_container"`
	GroupContainerURLPriority int        `db:"group_container_url_priority" json:"group_container_url_priority"`
	Order                     int        `db:"order" json:"order"`
	Link                      int        `db:"link" json:"link"`
	Live                      bool       `db:"live" json:"live"`
	LiveStart                 *time.Time `db:"live_start" json:"live_start"`
	LiveEnd                   *time.Time `db:"live_end" json:"live_end"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
}

// liveWindowSlack is the offset used for a missing live window bound.
const liveWindowSlack = 10 * time.Second

// IsLive reports whether the page is visible at now. The live flag always wins;
// otherwise the page must have at least one window bound and now must fall
// strictly inside the window, a missing bound being already satisfied.
func (p *Page) IsLive(now time.Time) bool {
	if p.Live {
		return true
	}
	if p.LiveStart == nil && p.LiveEnd == nil {
		return false
	}
	from := now.Add(-liveWindowSlack)
	if p.LiveStart != nil {
		from = *p.LiveStart
	}
	to := now.Add(liveWindowSlack)
	if p.LiveEnd != nil {
		to = *p.LiveEnd
	}
	return from.Before(now) && to.After(now)
}

// PlacementKind tags how a page is attached to the tree.
type PlacementKind int

const (
	// PlacedAtRoot has no explicit parent slot.
	PlacedAtRoot PlacementKind = iota
	// PlacedUnderParent has an explicit parent id (0 is the top level).
	PlacedUnderParent
	// PlacedWithMarker carries a negative non-root parent marker.
	PlacedWithMarker
)

// Placement is the decoded form of the parent column.
type Placement struct {
	Kind PlacementKind
	// ParentID is set for PlacedUnderParent; Marker for PlacedWithMarker.
	ParentID int64
	Marker   int64
}

// Placement decodes the parent sentinel.
func (p *Page) Placement() Placement {
	switch {
	case p.Parent >= 0:
		return Placement{Kind: PlacedUnderParent, ParentID: p.Parent}
	case p.Parent == RootParent:
		return Placement{Kind: PlacedAtRoot}
	default:
		return Placement{Kind: PlacedWithMarker, Marker: p.Parent}
	}
}

// IsGroupContainer reports whether the page lists a group's items as its children.
func (p *Page) IsGroupContainer() bool {
	return p.GroupContainer > 0
}

// PageGroup is a tag-like container of pages that can also act as an alternate parent.
type PageGroup struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	ItemName    string `db:"item_name" json:"item_name"`
	URLPriority int    `db:"url_priority" json:"url_priority"`
}

// PageGroupPage is a single group membership.
type PageGroupPage struct {
	ID      int64 `db:"id" json:"id"`
	PageID  int64 `db:"page_id" json:"page_id"`
	GroupID int64 `db:"group_id" json:"group_id"`
}

// PageLang holds the per-language url segment and name of a page.
type PageLang struct {
	ID          int64  `db:"id" json:"id"`
	PageID      int64  `db:"page_id" json:"page_id"`
	LanguageID  int64  `db:"language_id" json:"language_id"`
	URL         string `db:"url" json:"url"`
	Name        string `db:"name" json:"name"`
	LiveVersion int64  `db:"live_version" json:"live_version"`
}

// PageVersion is a saved version of a page.
type PageVersion struct {
	ID        int64     `db:"id" json:"id"`
	PageID    int64     `db:"page_id" json:"page_id"`
	VersionID int64     `db:"version_id" json:"version_id"`
	Template  int64     `db:"template" json:"template"`
	Label     string    `db:"label" json:"label"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PageBlock is the content of one block on one page.
// For repeater blocks Content holds the repeater id.
type PageBlock struct {
	ID         int64  `db:"id" json:"id"`
	LanguageID int64  `db:"language_id" json:"language_id"`
	PageID     int64  `db:"page_id" json:"page_id"`
	BlockID    int64  `db:"block_id" json:"block_id"`
	Content    string `db:"content" json:"content"`
	Version    int64  `db:"version" json:"version"`
}

// MenuItem links a menu entry to one page, or to a page followed by a
// comma-separated group suffix ("12,4").
type MenuItem struct {
	ID         int64  `db:"id" json:"id"`
	MenuID     int64  `db:"menu_id" json:"menu_id"`
	PageID     string `db:"page_id" json:"page_id"`
	Order      int    `db:"order" json:"order"`
	SubLevels  int    `db:"sub_levels" json:"sub_levels"`
	CustomName string `db:"custom_name" json:"custom_name"`
}

// RolePageAction is a per-page permission override for a role.
type RolePageAction struct {
	ID       int64  `db:"id" json:"id"`
	RoleID   int64  `db:"role_id" json:"role_id"`
	PageID   int64  `db:"page_id" json:"page_id"`
	ActionID int64  `db:"action_id" json:"action_id"`
	Access   string `db:"access" json:"access"`
}

// PublishRequest is a pending request to publish a page version.
type PublishRequest struct {
	ID            int64  `db:"id" json:"id"`
	PageVersionID int64  `db:"page_version_id" json:"page_version_id"`
	Status        string `db:"status" json:"status"`
	UserID        int64  `db:"user_id" json:"user_id"`
	Note          string `db:"note" json:"note"`
}

// RepeaterRow is one row of a repeater block.
type RepeaterRow struct {
	ID         int64 `db:"id" json:"id"`
	RepeaterID int64 `db:"repeater_id" json:"repeater_id"`
	RowID      int64 `db:"row_id" json:"row_id"`
}

// RepeaterData is one cell of a repeater row.
type RepeaterData struct {
	ID      int64  `db:"id" json:"id"`
	RowKey  int64  `db:"row_key" json:"row_key"`
	BlockID int64  `db:"block_id" json:"block_id"`
	Content string `db:"content" json:"content"`
	Version int64  `db:"version" json:"version"`
}

// Block is a block type definition.
type Block struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Label string `db:"label" json:"label"`
	Type  string `db:"type" json:"type"`
}

// AdminLog is an audit entry.
type AdminLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Log       string    `db:"log" json:"log"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Backup is one backed-up record, tagged with the audit entry that caused it.
type Backup struct {
	ID        int64     `db:"id" json:"id"`
	LogID     int64     `db:"log_id" json:"log_id"`
	PrimaryID int64     `db:"primary_id" json:"primary_id"`
	Model     string    `db:"model" json:"model"`
	Data      []byte    `db:"data" json:"data"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
