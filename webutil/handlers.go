package webutil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
)

// AppHandler is a handler that reports failure by returning an error
// instead of writing its own error responses.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc. Typed
// HTTPErrors keep their status and public message; sql.ErrNoRows maps
// to 404; anything else becomes a generic 500. Full causes are logged
// server-side only, never sent to the client.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		var httpErr *HTTPError
		switch {
		case errors.As(err, &httpErr):
			level := slog.LevelWarn
			if httpErr.Code >= 500 {
				level = slog.LevelError
			}
			slog.Log(r.Context(), level, "Request failed",
				"code", httpErr.Code,
				"msg", httpErr.Message,
				"cause", errors.Unwrap(httpErr),
				"path", r.URL.Path,
				"method", r.Method,
			)
			RespondWithError(w, httpErr.Code, httpErr.Message)

		case errors.Is(err, sql.ErrNoRows):
			slog.Info("Resource not found", "path", r.URL.Path, "method", r.Method, "error", err)
			RespondWithError(w, http.StatusNotFound, msgNotFound)

		default:
			slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
			RespondWithError(w, http.StatusInternalServerError, msgInternalServer)
		}
	}
}
