package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type settingsKey string

const (
	// LanguageKey is the key for the requested language in the request context.
	LanguageKey settingsKey = "language"
)

// LanguageMiddleware reads a "lang" query parameter and stores the language id
// in the request context. Invalid or missing values leave the context untouched.
func LanguageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseInt(r.URL.Query().Get("lang"), 10, 64); err == nil && id > 0 {
			r = r.WithContext(WithLanguage(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithLanguage sets the active language of ctx.
func WithLanguage(ctx context.Context, languageID int64) context.Context {
	return context.WithValue(ctx, LanguageKey, languageID)
}

// RequestLanguage resolves the active language from the request context,
// falling back to Default.
type RequestLanguage struct {
	Default int64
}

// CurrentLanguageID returns the language selected for the request.
func (l RequestLanguage) CurrentLanguageID(ctx context.Context) int64 {
	if id, ok := ctx.Value(LanguageKey).(int64); ok {
		return id
	}
	return l.Default
}
