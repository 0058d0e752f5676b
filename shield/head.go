package shield

import "net/http"

// HeadToGet serves HEAD with the GET route, so HEAD checks on /health and
// /document get 200 instead of 405. net/http drops the response body.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
