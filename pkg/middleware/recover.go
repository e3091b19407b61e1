package middleware

import (
	"log/slog"
	"net/http"
)

// Recover returns middleware that converts handler panics into a 500
// response instead of tearing down the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(
						"handler panic",
						"method", r.Method,
						"uri", r.URL.RequestURI(),
						"panic", rec,
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
