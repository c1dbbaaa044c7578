package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ErrTokenInvalid wraps every bearer verification failure so callers can map
// the whole class to 401 without inspecting jwt internals.
var ErrTokenInvalid = errors.New("bearer token invalid")

// TokenVerifier verifies a raw bearer token and extracts the subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (subject string, err error)
}

// JWTVerifier verifies RS256 tokens against a JWKS-backed key set and checks
// issuer, audience and expiry.
type JWTVerifier struct {
	keys     *JWKSCache
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewJWTVerifier creates a verifier. audience is optional; issuer is not.
func NewJWTVerifier(keys *JWKSCache, issuer, audience string) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		parser:   jwt.NewParser(opts...),
	}
}

// Verify implements TokenVerifier.
func (v *JWTVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.parser.Parse(rawToken, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return subject, nil
}

// BearerMiddleware verifies the Authorization bearer token and injects the
// token subject into the request context as the owner id.
func BearerMiddleware(verifier TokenVerifier, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, r, "MISSING_TOKEN", "missing bearer token")
				return
			}

			subject, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if logger != nil {
					logger.Warn("bearer token rejected",
						zap.String("path", r.URL.Path),
						zap.Error(err))
				}
				writeAuthError(w, r, "INVALID_TOKEN", "invalid or expired bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), subject)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
