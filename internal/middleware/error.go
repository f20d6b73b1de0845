package middleware

import (
	"fmt"
	"net/http"

	"go-cms-app/internal/logger"

	"github.com/goccy/go-json"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// Error is a middleware that converts handler errors and panics into JSON error responses.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					WriteJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()

			if err := next(w, r); err != nil {
				fields := map[string]interface{}{"path": r.URL.Path, "status": err.Code}
				if err.Code >= http.StatusInternalServerError {
					log.With(fields).Error(err.Error, err.Message)
				} else {
					log.With(fields).Warn(err.Message)
				}
				WriteJSONError(w, err.Code, err.Message)
			}
		})
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

// WriteJSONError writes a JSON error body with the given status.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, errorBody{Status: status, Error: message})
}
