package data

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

type actorKey struct{}

// WithActor records who is acting in ctx, for audit entries.
func WithActor(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, actorKey{}, subject)
}

// Actor returns the subject recorded with WithActor, or "" when none was.
func Actor(ctx context.Context) string {
	if subject, ok := ctx.Value(actorKey{}).(string); ok {
		return subject
	}
	return ""
}

var dbMapper = reflectx.NewMapper("db")

// SQLAuditRepository writes admin log entries and the backups attached to them.
type SQLAuditRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

// NewSQLAuditRepository creates a new SQLAuditRepository.
func NewSQLAuditRepository(db sqlx.ExtContext) *SQLAuditRepository {
	return &SQLAuditRepository{db: db, now: time.Now}
}

// NewEntry creates an admin log entry and returns its ID.
func (r *SQLAuditRepository) NewEntry(ctx context.Context, message string) (int64, error) {
	query := "INSERT INTO admin_logs (user_id, log, created_at) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), Actor(ctx), message, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to create admin log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read admin log id: %w", err)
	}
	return id, nil
}

// Write stores one backup row per record. records is a single model pointer or
// a slice of models; an empty set writes nothing.
func (r *SQLAuditRepository) Write(ctx context.Context, logID int64, kind RecordKind, records interface{}) error {
	if _, err := kind.Table(); err != nil {
		return err
	}
	query := r.db.Rebind("INSERT INTO backups (log_id, primary_id, model, data, created_at) VALUES (?, ?, ?, ?, ?)")
	for _, record := range expandRecords(records) {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode %s backup: %w", kind, err)
		}
		var primaryID int64
		if field := dbMapper.FieldByName(reflect.Indirect(reflect.ValueOf(record)), "id"); field.IsValid() && field.CanInt() {
			primaryID = field.Int()
		}
		if _, err := r.db.ExecContext(ctx, query, logID, primaryID, string(kind), payload, r.now()); err != nil {
			return fmt.Errorf("failed to write %s backup: %w", kind, err)
		}
	}
	return nil
}

// Backups returns the backups tagged with logID in write order.
func (r *SQLAuditRepository) Backups(ctx context.Context, logID int64) ([]Backup, error) {
	var backups []Backup
	query := "SELECT id, log_id, primary_id, model, data, created_at FROM backups WHERE log_id = ? ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.db, &backups, r.db.Rebind(query), logID); err != nil {
		return nil, fmt.Errorf("failed to get backups: %w", err)
	}
	return backups, nil
}

// DecodeBackup turns a backup row back into column values.
func DecodeBackup(b Backup) (RecordKind, map[string]interface{}, error) {
	kind := RecordKind(b.Model)
	record, err := newRecord(kind)
	if err != nil {
		return "", nil, err
	}
	if err := json.Unmarshal(b.Data, record); err != nil {
		return "", nil, fmt.Errorf("failed to decode %s backup %d: %w", kind, b.ID, err)
	}
	fields := make(map[string]interface{})
	for column, value := range dbMapper.FieldMap(reflect.ValueOf(record)) {
		fields[column] = value.Interface()
	}
	return kind, fields, nil
}

func newRecord(kind RecordKind) (interface{}, error) {
	switch kind {
	case KindPage:
		return &Page{}, nil
	case KindPageVersion:
		return &PageVersion{}, nil
	case KindPageLang:
		return &PageLang{}, nil
	case KindPageBlock:
		return &PageBlock{}, nil
	case KindMenuItem:
		return &MenuItem{}, nil
	case KindRolePageAction:
		return &RolePageAction{}, nil
	case KindPublishRequest:
		return &PublishRequest{}, nil
	case KindRepeaterRow:
		return &RepeaterRow{}, nil
	case KindRepeaterData:
		return &RepeaterData{}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func expandRecords(records interface{}) []interface{} {
	if records == nil {
		return nil
	}
	v := reflect.ValueOf(records)
	switch v.Kind() {
	case reflect.Slice:
		out := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, v.Index(i).Interface())
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
	}
	return []interface{}{records}
}
