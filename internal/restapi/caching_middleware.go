package restapi

import (
	"fmt"
	"net/http"
)

const noStoreHeader = "no-cache, no-store, must-revalidate"

// cachePolicy decides the Cache-Control value for a response status. Only 2xx
// responses may be cached, and only when maxAge is positive.
type cachePolicy struct {
	success string
}

func newCachePolicy(maxAgeSeconds int) cachePolicy {
	if maxAgeSeconds <= 0 {
		return cachePolicy{success: noStoreHeader}
	}
	return cachePolicy{success: fmt.Sprintf("public, max-age=%d", maxAgeSeconds)}
}

func (p cachePolicy) headerFor(status int) string {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return p.success
	}
	return noStoreHeader
}

// CacheControlMiddleware stamps every response from next with the policy for
// maxAgeSeconds.
func CacheControlMiddleware(maxAgeSeconds int, next http.Handler) http.Handler {
	policy := newCachePolicy(maxAgeSeconds)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheStampingWriter{ResponseWriter: w, policy: policy}, r)
	})
}

// cacheStampingWriter sets Cache-Control once, just before the status line.
type cacheStampingWriter struct {
	http.ResponseWriter
	policy  cachePolicy
	stamped bool
}

func (w *cacheStampingWriter) WriteHeader(status int) {
	if !w.stamped {
		w.stamped = true
		w.Header().Set("Cache-Control", w.policy.headerFor(status))
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *cacheStampingWriter) Write(b []byte) (int, error) {
	if !w.stamped {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cacheStampingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
