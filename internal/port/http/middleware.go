package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
)

type contextKey string

const actorCtxKey = contextKey("actor")

const roleAdmin = "admin"

// Claims is the JWT payload issued by the auth service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates the bearer token and puts the resolved actor on the
// request context. Requests without a valid token are rejected before the
// handler runs.
func JWTAuth(secret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.UserID == "" {
				log.Debugf("Rejected request with invalid token: %v", err)
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			actor := entity.Actor{
				UserID: claims.UserID,
				Admin:  claims.Role == roleAdmin,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorCtxKey, actor)))
		})
	}
}

func actorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(entity.Actor)
	return actor, ok
}
