// Package shield provides the HTTP middleware wrapped around the scribe API.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(64 << 20) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

// APIStack returns the standard middleware stack for the JSON API.
// Middleware is ordered: HeadToGet → SecurityHeaders → MaxBody.
func APIStack(maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(APIHeaders()),
		MaxBody(maxBody),
	}
}
