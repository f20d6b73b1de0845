// Command pagectl maintains the page tree from the command line using the
// same configuration, policies and backups as the server.
package main

import (
	"fmt"
	"os"

	"go-cms-app/internal/auth"
	"go-cms-app/internal/cache"
	"go-cms-app/internal/config"
	"go-cms-app/internal/data"
	"go-cms-app/internal/logger"
	"go-cms-app/internal/middleware"
	"go-cms-app/internal/service"
)

func main() {
	root, release := newRootCmd(setupFromConfig)
	err := root.Execute()
	release()
	if err != nil {
		os.Exit(1)
	}
}

// setupFromConfig wires the service exactly like the server does, logging to stderr.
func setupFromConfig(c *cli) (func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.Log, os.Stderr).With(map[string]interface{}{"subject": c.subject})

	db, err := data.NewDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN, cfg.Auth.ModelPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	listingCache, err := cache.New(cfg.Cache)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	c.enforcer = enforcer
	c.svc = service.NewPageService(
		data.NewStore(db),
		listingCache,
		auth.NewPageChecker(enforcer, data.Actor, log),
		middleware.RequestLanguage{Default: cfg.Site.LanguageID},
		cfg.Site,
		log,
	)
	return func() {
		if err := listingCache.Close(); err != nil {
			log.Error(err, "Failed to close cache")
		}
		if err := db.Close(); err != nil {
			log.Error(err, "Failed to close database")
		}
	}, nil
}
