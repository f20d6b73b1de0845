package middleware

import (
	"net/http"

	"go-cms-app/internal/session"

	"github.com/casbin/casbin/v2"
)

// SessionSubjectKey is the session key holding the authenticated subject.
const SessionSubjectKey = "user_subject"

// Authorizer creates a new middleware for authorization.
// It checks the user's permissions using Casbin based on session data, with
// the request path as object and the HTTP method as action.
func Authorizer(e casbin.IEnforcer, sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := sm.GetString(r.Context(), SessionSubjectKey)
			if subject == "" {
				subject = AnonymousSubject
			}
			roles, _ := e.GetRolesForUser(subject)
			r = r.WithContext(SetUserInfo(r.Context(), &UserInfo{Subject: subject, Roles: roles}))

			allowed, err := e.Enforce(subject, r.URL.Path, r.Method)
			if err != nil {
				WriteJSONError(w, http.StatusInternalServerError, "Authorization error")
				return
			}
			if !allowed {
				WriteJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
