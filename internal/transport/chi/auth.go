package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/logger"
)

// APIKeyHeader is accepted as an alternative to "Authorization: Bearer <key>".
const APIKeyHeader = "X-API-Key"

// openPaths serve probes and scrapes without a key.
var openPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// APIKeyAuth rejects requests that carry none of keys. Empty keys are ignored,
// and with no usable keys the middleware is a pass-through.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(accepted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, open := openPaths[r.URL.Path]; open {
				next.ServeHTTP(w, r)
				return
			}

			key, problem := presentedKey(r)
			if problem == "" && !matchesAny(accepted, key) {
				problem = "invalid api key"
			}
			if problem != "" {
				logger.FromContext(r.Context()).Info("Rejected unauthenticated request",
					zap.String("path", r.URL.Path), zap.String("reason", problem))
				w.Header().Set("WWW-Authenticate", `Bearer realm="kbassist"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, problem)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the caller's key, preferring the Authorization header.
func presentedKey(r *http.Request) ([]byte, string) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return nil, "authorization header must use Bearer scheme"
		}
		return []byte(token), ""
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return []byte(key), ""
	}
	return nil, "missing api key"
}

// matchesAny compares token against every key in constant time.
func matchesAny(keys [][]byte, token []byte) bool {
	var hit int
	for _, k := range keys {
		hit |= subtle.ConstantTimeCompare(k, token)
	}
	return hit == 1
}
