package handler

import (
	"net/http"

	"go-cms-app/internal/logger"
	"go-cms-app/internal/middleware"
	"go-cms-app/internal/session"

	"github.com/casbin/casbin/v2"
)

// AuthHandler holds the dependencies for the session handlers. Credentials
// are checked by an authenticating proxy in front of the server, which passes
// the subject in a trusted header.
type AuthHandler struct {
	session       session.Manager
	enforcer      casbin.IEnforcer
	trustedHeader string
	log           logger.Logger
}

// NewAuthHandler creates a new AuthHandler. An empty trustedHeader disables login.
func NewAuthHandler(sm session.Manager, e casbin.IEnforcer, trustedHeader string, log logger.Logger) *AuthHandler {
	return &AuthHandler{session: sm, enforcer: e, trustedHeader: trustedHeader, log: log}
}

// handleLogin stores the proxy-authenticated subject in the session.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.trustedHeader == "" {
		middleware.WriteJSONError(w, http.StatusNotFound, "Login is not enabled")
		return
	}
	subject := r.Header.Get(h.trustedHeader)
	if subject == "" || subject == middleware.AnonymousSubject {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.session.RenewToken(r.Context()); err != nil {
		h.log.Error(err, "Failed to renew session token")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	h.session.Put(r.Context(), middleware.SessionSubjectKey, subject)
	h.log.With(map[string]interface{}{"subject": subject}).Info("User logged in")
	h.writeUser(w, subject)
}

// handleMe returns the current subject and every role it holds.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, middleware.GetUserInfo(r.Context()).Subject)
}

// handleLogout destroys the session.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Destroy(r.Context()); err != nil {
		h.log.Error(err, "Failed to destroy session")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeUser(w http.ResponseWriter, subject string) {
	roles, err := h.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		h.log.Error(err, "Failed to resolve roles")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Failed to resolve roles")
		return
	}
	_ = middleware.WriteJSON(w, http.StatusOK, &middleware.UserInfo{Subject: subject, Roles: roles})
}
