package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
)

const RoleAdmin = "admin"

// Claims are the editor token claims. Subject identifies the editor user.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	Subject string
	Role    string
	Token   string
}

type principalKey struct{}

// PrincipalFrom returns the caller authenticated by JWTAuth.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// JWTAuth accepts HS256 bearer tokens signed with secret that carry the
// required role. The raw token stays available to forward to the backend.
func JWTAuth(secret []byte, role string, log *logger.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				_ = apperrors.WriteError(w, apperrors.Unauthorized("missing bearer token"))
				return
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			var claims Claims
			tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil || !tok.Valid {
				log.Warn("Rejected bearer token",
					"request_id", RequestID(r.Context()),
					"error", err,
				)
				_ = apperrors.WriteError(w, apperrors.Unauthorized("invalid token"))
				return
			}

			if claims.Subject == "" {
				_ = apperrors.WriteError(w, apperrors.Unauthorized("token has no subject"))
				return
			}
			if role != "" && claims.Role != role {
				_ = apperrors.WriteError(w, apperrors.Forbidden("insufficient role"))
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, Principal{
				Subject: claims.Subject,
				Role:    claims.Role,
				Token:   raw,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
