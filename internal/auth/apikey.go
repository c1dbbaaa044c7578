package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// APIKeyHeader is the request header carrying the shared API key.
const APIKeyHeader = "x-api-key"

// APIKeyMiddleware rejects requests whose x-api-key header does not match the
// configured secret. The comparison is constant-time.
func APIKeyMiddleware(apiKey string, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				if logger != nil {
					logger.Warn("api key rejected",
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr))
				}
				writeAuthError(w, r, "INVALID_API_KEY", "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError renders the service error envelope for a 401. Kept local to
// avoid a dependency on the http package.
func writeAuthError(w http.ResponseWriter, r *http.Request, code, message string) {
	requestID := ""
	if v, ok := r.Context().Value("correlation_id").(string); ok {
		requestID = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": requestID,
		},
	})
}
