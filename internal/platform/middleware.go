package platform

import (
	"context"
	"net/http"
)

type ctxKey int

const platformKey ctxKey = 1

// Middleware classifies the request once and stashes the tag in the context so
// handlers never re-parse the User-Agent.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := FromUserAgent(r.UserAgent())
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), platformKey, p)))
	})
}

// FromContext returns the platform tag set by Middleware. Requests that bypass
// the middleware default to web.
func FromContext(ctx context.Context) Platform {
	if p, ok := ctx.Value(platformKey).(Platform); ok {
		return p
	}
	return Web
}
