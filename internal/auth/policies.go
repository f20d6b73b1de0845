package auth

import (
	"fmt"
	"go-cms-app/internal/logger"

	"github.com/casbin/casbin/v2"
)

// Page permission actions checked by the page tree.
const (
	ActionView = "pages"
	ActionAdd  = "pages.add"
)

// SeedDefaultPolicies ensures the baseline rules exist. Existing policies are
// left alone, so it is safe to run on every start.
//
// Editors may browse the tree and see every page; admins inherit that and may
// also add pages, delete subtrees and restore deletions.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	policies := [][]string{
		{"editor", "/pages", "GET"},
		{"editor", "/pages/*", "GET"},
		{"editor", "/pages/*", ActionView},

		{"admin", "/pages/*", ActionAdd},
		{"admin", "/pages/*", "DELETE"},
		{"admin", "/backups/:id/restore", "POST"},

		{"anonymous", "/robots.txt", "GET"},
		{"anonymous", "/sitemap.xml", "GET"},
		{"anonymous", "/auth/login", "POST"},
		{"anonymous", "/auth/me", "GET"},
		{"anonymous", "/auth/logout", "POST"},
	}
	for _, p := range policies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	roles := [][2]string{{"editor", "anonymous"}, {"admin", "editor"}}
	for _, r := range roles {
		if has, _ := e.HasRoleForUser(r[0], r[1]); !has {
			if _, err := e.AddRoleForUser(r[0], r[1]); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add role '%s' -> '%s'", r[0], r[1]))
			}
		}
	}
	log.Info("Policy seeding complete.")
}
