package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/auth"
)

type contextKey string

const PrincipalContextKey contextKey = "principal"

// Principal identifies the caller of an authenticated request.
type Principal struct {
	Method  string // "api_key" or "oidc"
	Subject string
	Email   string
}

// Auth creates authentication middleware. A bearer token is accepted when it
// is one of keys or, if verifier is non-nil, a valid ID token. The event
// stream may also pass the token as the access_token query parameter, since
// browsers cannot set headers on WebSocket requests.
func Auth(keys *auth.KeySet, verifier auth.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing or invalid authorization header")
				return
			}

			if keys.Check(token) {
				ctx := context.WithValue(r.Context(), PrincipalContextKey, &Principal{Method: "api_key"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if verifier != nil {
				claims, err := verifier.Verify(r.Context(), token)
				if err == nil {
					ctx := context.WithValue(r.Context(), PrincipalContextKey, &Principal{
						Method:  "oidc",
						Subject: claims.Subject,
						Email:   claims.Email,
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				logger.Debug("bearer token rejected", zap.Error(err))
			}

			writeUnauthorized(w, "invalid credentials")
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		return token, ok && token != ""
	}
	if websocketUpgrade(r) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="pkg-groups"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}

// GetPrincipal retrieves the caller from the request context.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(PrincipalContextKey).(*Principal)
	return p
}
