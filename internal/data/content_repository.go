package data

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	versionColumns        = "id, page_id, version_id, template, label, user_id, created_at"
	langColumns           = "id, page_id, language_id, url, name, live_version"
	blockColumns          = "id, language_id, page_id, block_id, content, version"
	menuItemColumns       = "id, menu_id, page_id, `order`, sub_levels, custom_name"
	roleActionColumns     = "id, role_id, page_id, action_id, access"
	publishRequestColumns = "id, page_version_id, status, user_id, note"
	repeaterRowColumns    = "id, repeater_id, row_id"
	repeaterDataColumns   = "id, row_key, block_id, content, version"
)

var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLContentRepository reads and removes the records that depend on a page.
type SQLContentRepository struct {
	db sqlx.ExtContext
}

// NewSQLContentRepository creates a new SQLContentRepository.
func NewSQLContentRepository(db sqlx.ExtContext) *SQLContentRepository {
	return &SQLContentRepository{db: db}
}

// Versions returns the versions of a page.
func (r *SQLContentRepository) Versions(ctx context.Context, pageID int64) ([]PageVersion, error) {
	var rows []PageVersion
	if err := r.selectWhere(ctx, &rows, "page_versions", versionColumns, "page_id", pageID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Languages returns the per-language rows of a page.
func (r *SQLContentRepository) Languages(ctx context.Context, pageID int64) ([]PageLang, error) {
	var rows []PageLang
	if err := r.selectWhere(ctx, &rows, "page_lang", langColumns, "page_id", pageID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Blocks returns the block contents of a page.
func (r *SQLContentRepository) Blocks(ctx context.Context, pageID int64) ([]PageBlock, error) {
	var rows []PageBlock
	if err := r.selectWhere(ctx, &rows, "page_blocks", blockColumns, "page_id", pageID); err != nil {
		return nil, err
	}
	return rows, nil
}

// MenuItems returns the menu items pointing at the page, including entries
// that reference the page followed by a comma suffix.
func (r *SQLContentRepository) MenuItems(ctx context.Context, pageID int64) ([]MenuItem, error) {
	var rows []MenuItem
	id := strconv.FormatInt(pageID, 10)
	query := "SELECT " + menuItemColumns + " FROM menu_items WHERE page_id = ? OR page_id LIKE ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), id, id+",%"); err != nil {
		return nil, fmt.Errorf("failed to select menu_items: %w", err)
	}
	return rows, nil
}

// RoleActions returns the per-page role permission rows.
func (r *SQLContentRepository) RoleActions(ctx context.Context, pageID int64) ([]RolePageAction, error) {
	var rows []RolePageAction
	if err := r.selectWhere(ctx, &rows, "user_roles_page_actions", roleActionColumns, "page_id", pageID); err != nil {
		return nil, err
	}
	return rows, nil
}

// PublishRequests returns the publish requests for the given versions.
func (r *SQLContentRepository) PublishRequests(ctx context.Context, versionIDs []int64) ([]PublishRequest, error) {
	var rows []PublishRequest
	if err := r.selectIn(ctx, &rows, "page_publish_requests", publishRequestColumns, "page_version_id", versionIDs); err != nil {
		return nil, err
	}
	return rows, nil
}

// RepeaterRows returns the rows of the given repeaters.
func (r *SQLContentRepository) RepeaterRows(ctx context.Context, repeaterIDs []int64) ([]RepeaterRow, error) {
	var rows []RepeaterRow
	if err := r.selectIn(ctx, &rows, "page_blocks_repeater_rows", repeaterRowColumns, "repeater_id", repeaterIDs); err != nil {
		return nil, err
	}
	return rows, nil
}

// RepeaterData returns the cells of the given repeater rows.
func (r *SQLContentRepository) RepeaterData(ctx context.Context, rowIDs []int64) ([]RepeaterData, error) {
	var rows []RepeaterData
	if err := r.selectIn(ctx, &rows, "page_blocks_repeater_data", repeaterDataColumns, "row_key", rowIDs); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the records of the given kind by primary key.
func (r *SQLContentRepository) Delete(ctx context.Context, kind RecordKind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := kind.Table()
	if err != nil {
		return err
	}
	query, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("failed to build delete for %s: %w", table, err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteSearchData removes the search index rows of a page.
func (r *SQLContentRepository) DeleteSearchData(ctx context.Context, pageID int64) error {
	query := "DELETE FROM page_search_data WHERE page_id = ?"
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), pageID); err != nil {
		return fmt.Errorf("failed to delete from page_search_data: %w", err)
	}
	return nil
}

// Replace writes a record back verbatim, replacing any row with the same primary key.
func (r *SQLContentRepository) Replace(ctx context.Context, kind RecordKind, fields map[string]interface{}) error {
	table, err := kind.Table()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to restore into %s", table)
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !columnName.MatchString(column) {
			return fmt.Errorf("invalid column %q for %s", column, table)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		quoted[i] = "`" + column + "`"
		args[i] = fields[column]
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("REPLACE INTO %s (%s) VALUES (%s)", table, strings.Join(quoted, ", "), placeholders)
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to restore into %s: %w", table, err)
	}
	return nil
}

func (r *SQLContentRepository) selectWhere(ctx context.Context, dest interface{}, table, columns, column string, value int64) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY id", columns, table, column)
	if err := sqlx.SelectContext(ctx, r.db, dest, r.db.Rebind(query), value); err != nil {
		return fmt.Errorf("failed to select %s: %w", table, err)
	}
	return nil
}

func (r *SQLContentRepository) selectIn(ctx context.Context, dest interface{}, table, columns, column string, values []int64) error {
	if len(values) == 0 {
		return nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (?) ORDER BY id", columns, table, column), values)
	if err != nil {
		return fmt.Errorf("failed to build select for %s: %w", table, err)
	}
	if err := sqlx.SelectContext(ctx, r.db, dest, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to select %s: %w", table, err)
	}
	return nil
}
