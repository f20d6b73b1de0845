package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const pageColumns = "id, parent, group_container, group_container_url_priority, `order`, link, live, live_start, live_end, created_at, updated_at"

// SQLPageRepository is the sqlx implementation of the page repository.
type SQLPageRepository struct {
	db sqlx.ExtContext
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(db sqlx.ExtContext) *SQLPageRepository {
	return &SQLPageRepository{db: db}
}

// FindByID retrieves a single page by its ID. A missing page is not an error.
func (r *SQLPageRepository) FindByID(ctx context.Context, id int64) (*Page, error) {
	var page Page
	query := "SELECT " + pageColumns + " FROM pages WHERE id = ?"
	if err := sqlx.GetContext(ctx, r.db, &page, r.db.Rebind(query), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page by id: %w", err)
	}
	return &page, nil
}

// FindAll retrieves every page in storage order.
func (r *SQLPageRepository) FindAll(ctx context.Context) ([]*Page, error) {
	var pages []*Page
	query := "SELECT " + pageColumns + " FROM pages ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &pages, query); err != nil {
		return nil, fmt.Errorf("failed to get all pages: %w", err)
	}
	return pages, nil
}

// FindByParent retrieves the pages whose parent column equals parentID.
func (r *SQLPageRepository) FindByParent(ctx context.Context, parentID int64) ([]*Page, error) {
	var pages []*Page
	query := "SELECT " + pageColumns + " FROM pages WHERE parent = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &pages, r.db.Rebind(query), parentID); err != nil {
		return nil, fmt.Errorf("failed to get pages by parent: %w", err)
	}
	return pages, nil
}

// FindByIDs retrieves the given pages, in storage order.
func (r *SQLPageRepository) FindByIDs(ctx context.Context, ids []int64) ([]*Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT "+pageColumns+" FROM pages WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build pages query: %w", err)
	}
	var pages []*Page
	if err := sqlx.SelectContext(ctx, r.db, &pages, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get pages by ids: %w", err)
	}
	return pages, nil
}

// Count returns the number of non-link pages. Unless includeGroup is set only
// top-level pages that are not group containers are counted.
func (r *SQLPageRepository) Count(ctx context.Context, includeGroup bool) (int, error) {
	query := "SELECT COUNT(*) FROM pages WHERE link = 0"
	if !includeGroup {
		query += " AND parent <= 0 AND group_container = 0"
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, query); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return total, nil
}

// Save inserts the page when it has no ID yet and updates it otherwise.
func (r *SQLPageRepository) Save(ctx context.Context, page *Page) error {
	now := time.Now()
	page.UpdatedAt = now
	if page.ID == 0 {
		page.CreatedAt = now
		query := "INSERT INTO pages (parent, group_container, group_container_url_priority, `order`, link, live, live_start, live_end, created_at, updated_at) " +
			"VALUES (:parent, :group_container, :group_container_url_priority, :order, :link, :live, :live_start, :live_end, :created_at, :updated_at)"
		res, err := sqlx.NamedExecContext(ctx, r.db, query, page)
		if err != nil {
			return fmt.Errorf("failed to execute create page query: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read new page id: %w", err)
		}
		page.ID = id
		return nil
	}

	query := "UPDATE pages SET parent = :parent, group_container = :group_container, group_container_url_priority = :group_container_url_priority, " +
		"`order` = :order, link = :link, live = :live, live_start = :live_start, live_end = :live_end, updated_at = :updated_at WHERE id = :id"
	result, err := sqlx.NamedExecContext(ctx, r.db, query, page)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no page found to update with id %d", page.ID)
	}
	return nil
}
