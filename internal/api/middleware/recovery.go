package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/haulroute/haulroute/internal/api/models"
)

// msgInternal is served for panics; it matches the route endpoint's generic
// failure text.
const msgInternal = "An unexpected error occurred"

// Recovery returns a middleware that recovers from panics and answers 500
// with an error body.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error().
					Str("request_id", GetRequestID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				models.WriteError(w, http.StatusInternalServerError, msgInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
