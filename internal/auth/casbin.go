package auth

import (
	"context"
	"fmt"
	"go-cms-app/internal/logger"
	"strconv"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// DefaultModel is the request model used when no model file is configured.
// Objects are url paths matched with keyMatch2; actions are HTTP methods for
// routes and permission names ("pages", "pages.add") for page checks.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// LoadModel reads the casbin model at path, or DefaultModel when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(DefaultModel)
	}
	return model.NewModelFromFile(path)
}

// NewEnforcer creates an enforcer whose policies live in the casbin_rule table
// of the application database, and loads them.
func NewEnforcer(driverName, dsn, modelPath string) (*casbin.Enforcer, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	adapter := sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	})

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer creates an enforcer without persistence, for tools and tests.
func NewMemoryEnforcer(modelPath string) (*casbin.Enforcer, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	return enforcer, nil
}

// PageObject is the casbin object naming a page.
func PageObject(pageID int64) string {
	return "/pages/" + strconv.FormatInt(pageID, 10)
}

// SubjectFunc extracts the acting subject from a request context.
type SubjectFunc func(ctx context.Context) string

// PageChecker answers per-page permission questions with casbin.
type PageChecker struct {
	enforcer casbin.IEnforcer
	subject  SubjectFunc
	log      logger.Logger
}

// NewPageChecker creates a PageChecker.
func NewPageChecker(e casbin.IEnforcer, subject SubjectFunc, log logger.Logger) *PageChecker {
	return &PageChecker{enforcer: e, subject: subject, log: log}
}

// CanPerform reports whether the subject in ctx may perform action on the page.
// Enforcement errors deny.
func (c *PageChecker) CanPerform(ctx context.Context, action string, pageID int64) bool {
	subject := c.subject(ctx)
	allowed, err := c.enforcer.Enforce(subject, PageObject(pageID), action)
	if err != nil {
		c.log.With(map[string]interface{}{"subject": subject, "page_id": pageID, "action": action}).
			Error(err, "Permission check failed")
		return false
	}
	return allowed
}
