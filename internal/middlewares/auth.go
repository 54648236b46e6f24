package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-auth-service/internal/jwt"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
)

// Tokener extracts the raw token string from a request.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// TokenVerifier validates a presented token and resolves its claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// Identity is the resolved caller identity attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// contextKey is an unexported type for keys in context
type contextKey struct{}

var identityKey = contextKey{}

// setIdentityToContext stores the resolved identity in the context
func setIdentityToContext(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentityFromContext retrieves the identity from the context. Returns nil if not present.
func GetIdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

// AuthMiddleware returns a middleware that gates protected routes.
// A missing or garbled Authorization header yields 401; a token rejected
// by the verifier yields 403. On success the resolved identity is attached
// to the request context for downstream handlers.
func AuthMiddleware(tokener Tokener, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Infow("authorization failed", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(ctx, tokenString)
			if err != nil {
				logger.Log.Infow("authorization failed", "err", err)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			ctx = setIdentityToContext(ctx, &Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
