// Package session keeps the logged-in subject of admin API clients.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go-cms-app/internal/config"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// CookieName is the name of the session cookie.
const CookieName = "cms_session"

// Manager is the part of the session implementation the handlers depend on.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// New creates a session manager whose sessions live in the sessions table of
// the application database. The store matches the database driver.
func New(cfg config.SessionConfig, driver string, db *sql.DB, secure bool) *scs.SessionManager {
	cleanup := time.Duration(cfg.CleanupInterval) * time.Minute

	sm := scs.New()
	if driver == "sqlite3" {
		sm.Store = sqlite3store.NewWithCleanupInterval(db, cleanup)
	} else {
		sm.Store = mysqlstore.NewWithCleanupInterval(db, cleanup)
	}
	sm.Lifetime = time.Duration(cfg.Lifetime) * time.Hour
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}
