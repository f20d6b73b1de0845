package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ContainerPage is a group container page that lists a given item, with the
// url priority the container overrides the group's default with (0 = unset).
type ContainerPage struct {
	ID               int64 `db:"id"`
	PriorityOverride int   `db:"group_container_url_priority"`
}

// SQLGroupRepository handles database operations for page groups.
type SQLGroupRepository struct {
	db    sqlx.ExtContext
	pages *SQLPageRepository
	now   func() time.Time
}

// NewSQLGroupRepository creates a new SQLGroupRepository.
func NewSQLGroupRepository(db sqlx.ExtContext, pages *SQLPageRepository) *SQLGroupRepository {
	return &SQLGroupRepository{db: db, pages: pages, now: time.Now}
}

// Find finds a group by its ID. A missing group is not an error.
func (r *SQLGroupRepository) Find(ctx context.Context, groupID int64) (*PageGroup, error) {
	var group PageGroup
	query := "SELECT id, name, item_name, url_priority FROM page_group WHERE id = ?"
	if err := sqlx.GetContext(ctx, r.db, &group, r.db.Rebind(query), groupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by id: %w", err)
	}
	return &group, nil
}

// PageGroups returns the groups a page belongs to in attachment order.
// Duplicate memberships are returned as stored.
func (r *SQLGroupRepository) PageGroups(ctx context.Context, pageID int64) ([]*PageGroup, error) {
	var groups []*PageGroup
	query := `SELECT g.id, g.name, g.item_name, g.url_priority
		FROM page_group_pages gp JOIN page_group g ON g.id = gp.group_id
		WHERE gp.page_id = ? ORDER BY gp.id`
	if err := sqlx.SelectContext(ctx, r.db, &groups, r.db.Rebind(query), pageID); err != nil {
		return nil, fmt.Errorf("failed to get groups for page: %w", err)
	}
	return groups, nil
}

// Containers returns the pages acting as containers of the group.
func (r *SQLGroupRepository) Containers(ctx context.Context, group *PageGroup) ([]*Page, error) {
	var pages []*Page
	query := "SELECT " + pageColumns + " FROM pages WHERE group_container = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &pages, r.db.Rebind(query), group.ID); err != nil {
		return nil, fmt.Errorf("failed to get group containers: %w", err)
	}
	return pages, nil
}

// ContainerPages returns the containers of the group that list pageID.
func (r *SQLGroupRepository) ContainerPages(ctx context.Context, group *PageGroup, pageID int64) ([]ContainerPage, error) {
	var containers []ContainerPage
	query := `SELECT p.id, p.group_container_url_priority FROM pages p
		WHERE p.group_container = ?
		AND EXISTS (SELECT 1 FROM page_group_pages gp WHERE gp.group_id = ? AND gp.page_id = ?)
		ORDER BY p.id`
	if err := sqlx.SelectContext(ctx, r.db, &containers, r.db.Rebind(query), group.ID, group.ID, pageID); err != nil {
		return nil, fmt.Errorf("failed to get container pages: %w", err)
	}
	return containers, nil
}

// ItemPageIDs returns the member page ids of the group as listed by the given
// container, in membership order. With liveOnly, pages that are not live are dropped.
func (r *SQLGroupRepository) ItemPageIDs(ctx context.Context, group *PageGroup, containerID int64, liveOnly bool) ([]int64, error) {
	items, err := r.ItemPages(ctx, group, containerID)
	if err != nil {
		return nil, err
	}
	now := r.now()
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if liveOnly && !item.IsLive(now) {
			continue
		}
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// ItemPages returns the member pages of the group as listed by the given container.
func (r *SQLGroupRepository) ItemPages(ctx context.Context, group *PageGroup, containerID int64) ([]*Page, error) {
	container, err := r.pages.FindByID(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if container == nil || container.GroupContainer != group.ID {
		return nil, nil
	}

	var memberIDs []int64
	query := "SELECT page_id FROM page_group_pages WHERE group_id = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &memberIDs, r.db.Rebind(query), group.ID); err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}

	pages, err := r.pages.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	seen := make(map[int64]bool, len(memberIDs))
	items := make([]*Page, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, p)
	}
	return items, nil
}

// AddPage attaches a page to a group.
func (r *SQLGroupRepository) AddPage(ctx context.Context, groupID, pageID int64) error {
	query := "INSERT INTO page_group_pages (page_id, group_id) VALUES (?, ?)"
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), pageID, groupID); err != nil {
		return fmt.Errorf("failed to add page to group: %w", err)
	}
	return nil
}

// Save creates a new group and sets its ID.
func (r *SQLGroupRepository) Save(ctx context.Context, group *PageGroup) error {
	query := "INSERT INTO page_group (name, item_name, url_priority) VALUES (:name, :item_name, :url_priority)"
	res, err := sqlx.NamedExecContext(ctx, r.db, query, group)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new group id: %w", err)
	}
	group.ID = id
	return nil
}
