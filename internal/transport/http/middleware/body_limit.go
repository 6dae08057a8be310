package middleware

import "net/http"

// BodyLimit caps request bodies on mutating methods. Signature images
// arrive base64-encoded in submit and approve payloads, so the cap has
// to leave room for those; MAX_BODY_BYTES controls it.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				if maxBytes > 0 {
					r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
