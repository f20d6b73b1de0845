package handler

import (
	"net/http"

	"go-cms-app/internal/logger"
	"go-cms-app/internal/middleware"
	"go-cms-app/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router. Every route goes through
// the authorization middleware; which subjects may reach it is decided by the
// casbin policies.
func NewRouter(
	pageHandler *PageHandler,
	seoHandler *SeoHandler,
	authHandler *AuthHandler,
	authzMiddleware func(http.Handler) http.Handler,
	errorMiddleware func(middleware.AppHandler) http.Handler,
	sm session.Manager,
	log logger.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LanguageMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(authzMiddleware)

		r.Get("/robots.txt", seoHandler.robotsHandler)
		r.Get("/sitemap.xml", seoHandler.sitemapHandler)

		r.Post("/auth/login", authHandler.handleLogin)
		r.Get("/auth/me", authHandler.handleMe)
		r.Post("/auth/logout", authHandler.handleLogout)

		r.Method(http.MethodGet, "/pages", errorMiddleware(pageHandler.listHandler))
		r.Method(http.MethodGet, "/pages/totals", errorMiddleware(pageHandler.totalsHandler))
		r.Method(http.MethodGet, "/pages/{id}", errorMiddleware(pageHandler.pageHandler))
		r.Method(http.MethodGet, "/pages/{id}/children", errorMiddleware(pageHandler.childrenHandler))
		r.Method(http.MethodGet, "/pages/{id}/parents", errorMiddleware(pageHandler.parentsHandler))
		r.Method(http.MethodDelete, "/pages/{id}", errorMiddleware(pageHandler.deleteHandler))
		r.Method(http.MethodPost, "/backups/{logID}/restore", errorMiddleware(pageHandler.restoreHandler))
	})

	return r
}
