package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-cms-app/internal/logger"
	"go-cms-app/internal/middleware"
	"go-cms-app/internal/pages"
	"go-cms-app/internal/service"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PageHandler holds the dependencies for the page tree handlers.
type PageHandler struct {
	pageService service.PageServicer
	log         logger.Logger
}

// NewPageHandler creates a new PageHandler with the given dependencies.
func NewPageHandler(ps service.PageServicer, log logger.Logger) *PageHandler {
	return &PageHandler{
		pageService: ps,
		log:         log,
	}
}

type deleteResponse struct {
	LogIDs []int64 `json:"log_ids"`
}

type restoreResponse struct {
	LogID    int64 `json:"log_id"`
	Restored int   `json:"restored"`
}

// listHandler serves the sorted page list. Query flags: links=0 drops link
// pages, group_pages=0 drops group pages and uses canonical paths,
// exclude_home=1 drops the home page, parent=ID narrows to one parent.
func (h *PageHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	opts, err := listOptions(r)
	if err != nil {
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusBadRequest}
	}
	entries, err := h.pageService.ListPages(r.Context(), opts)
	if err != nil {
		return serviceError(err, "Failed to list pages")
	}
	return writeJSON(w, http.StatusOK, entries)
}

func (h *PageHandler) totalsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	totals, err := h.pageService.Totals(r.Context())
	if err != nil {
		return serviceError(err, "Failed to count pages")
	}
	return writeJSON(w, http.StatusOK, totals)
}

func (h *PageHandler) pageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	details, err := h.pageService.Page(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load page")
	}
	return writeJSON(w, http.StatusOK, details)
}

// childrenHandler lists the category members of a page; live=1 keeps live pages only.
func (h *PageHandler) childrenHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	children, err := h.pageService.Children(r.Context(), id, r.URL.Query().Get("live") == "1")
	if err != nil {
		return serviceError(err, "Failed to list child pages")
	}
	return writeJSON(w, http.StatusOK, children)
}

func (h *PageHandler) parentsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	parents, err := h.pageService.Parents(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to rank parent pages")
	}
	return writeJSON(w, http.StatusOK, parents)
}

func (h *PageHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	logIDs, err := h.pageService.DeletePage(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to delete page")
	}
	return writeJSON(w, http.StatusOK, deleteResponse{LogIDs: logIDs})
}

func (h *PageHandler) restoreHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	logID, appErr := idParam(r, "logID")
	if appErr != nil {
		return appErr
	}
	restored, err := h.pageService.RestoreLog(r.Context(), logID)
	if err != nil {
		return serviceError(err, "Failed to restore backups")
	}
	return writeJSON(w, http.StatusOK, restoreResponse{LogID: logID, Restored: restored})
}

func listOptions(r *http.Request) (pages.ListOptions, error) {
	q := r.URL.Query()
	opts := pages.ListOptions{
		ExcludeLinks:      q.Get("links") == "0",
		ExcludeGroupPages: q.Get("group_pages") == "0",
		ExcludeHome:       q.Get("exclude_home") == "1",
	}
	if raw := q.Get("parent"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid parent id %q", raw)
		}
		opts.ParentID = &parentID
	}
	return opts, nil
}

func idParam(r *http.Request, name string) (int64, *middleware.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &middleware.AppError{
			Error:   fmt.Errorf("invalid %s %q", name, raw),
			Message: "Invalid " + name,
			Code:    http.StatusBadRequest,
		}
	}
	return id, nil
}

// serviceError maps service errors onto HTTP statuses.
func serviceError(err error, message string) *middleware.AppError {
	var invalid validation.Errors
	switch {
	case errors.Is(err, pages.ErrPageNotFound):
		return &middleware.AppError{Error: err, Message: "Page not found", Code: http.StatusNotFound}
	case errors.Is(err, service.ErrBackupNotFound):
		return &middleware.AppError{Error: err, Message: "Backup not found", Code: http.StatusNotFound}
	case errors.As(err, &invalid):
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusBadRequest}
	}
	return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) *middleware.AppError {
	if err := middleware.WriteJSON(w, status, v); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to encode response", Code: http.StatusInternalServerError}
	}
	return nil
}
