package middleware

import (
	"net/http"

	"github.com/haulroute/haulroute/internal/api/models"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects requests whose declared Content-Length exceeds limit with
// 413, and caps the body reader for requests that do not declare one.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				models.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
