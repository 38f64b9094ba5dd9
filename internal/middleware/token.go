package middleware

import (
	"net/http"
)

// TokenHeaderName carries the shared agent secret. The query parameter is
// accepted as an alternative for callers that cannot set headers.
const (
	TokenHeaderName = "X-Agent-Token"
	TokenQueryParam = "token"
)

// TokenGate rejects requests that do not present the shared agent secret.
// Missing and wrong tokens are indistinguishable to the caller; both fail
// before any backend call is issued. There is a single static credential
// for all agent callers, with no per-caller identity.
func TokenGate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeaderName)
			if token == "" {
				token = r.URL.Query().Get(TokenQueryParam)
			}
			if secret == "" || token != secret {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid or missing agent token"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
