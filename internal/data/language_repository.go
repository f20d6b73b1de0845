package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLLanguageRepository reads per-language page rows.
type SQLLanguageRepository struct {
	db sqlx.ExtContext
}

// NewSQLLanguageRepository creates a new SQLLanguageRepository.
func NewSQLLanguageRepository(db sqlx.ExtContext) *SQLLanguageRepository {
	return &SQLLanguageRepository{db: db}
}

// PageLangs returns the rows of every page in the given language, keyed by page id.
func (r *SQLLanguageRepository) PageLangs(ctx context.Context, languageID int64) (map[int64]PageLang, error) {
	var rows []PageLang
	query := "SELECT " + langColumns + " FROM page_lang WHERE language_id = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), languageID); err != nil {
		return nil, fmt.Errorf("failed to get page languages: %w", err)
	}
	langs := make(map[int64]PageLang, len(rows))
	for _, row := range rows {
		if _, seen := langs[row.PageID]; !seen {
			langs[row.PageID] = row
		}
	}
	return langs, nil
}

// Save inserts a per-language row and sets its ID.
func (r *SQLLanguageRepository) Save(ctx context.Context, lang *PageLang) error {
	query := "INSERT INTO page_lang (page_id, language_id, url, name, live_version) VALUES (:page_id, :language_id, :url, :name, :live_version)"
	res, err := sqlx.NamedExecContext(ctx, r.db, query, lang)
	if err != nil {
		return fmt.Errorf("failed to create page language: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read page language id: %w", err)
	}
	lang.ID = id
	return nil
}

// SQLBlockRepository reads block type definitions.
type SQLBlockRepository struct {
	db sqlx.ExtContext
}

// NewSQLBlockRepository creates a new SQLBlockRepository.
func NewSQLBlockRepository(db sqlx.ExtContext) *SQLBlockRepository {
	return &SQLBlockRepository{db: db}
}

// RepeaterBlockTypeIDs returns the ids of blocks of type "repeater".
func (r *SQLBlockRepository) RepeaterBlockTypeIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := "SELECT id FROM blocks WHERE type = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &ids, r.db.Rebind(query), "repeater"); err != nil {
		return nil, fmt.Errorf("failed to get repeater blocks: %w", err)
	}
	return ids, nil
}
