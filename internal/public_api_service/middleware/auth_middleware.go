package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	archivedomain "github.com/enerhub/edi_services/internal/archive_service/domain"
	core "github.com/enerhub/edi_services/internal/core_domain"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AuthenticatedActorContextKey = ContextKey("authenticatedActor")

// AuthenticatedActor is the market party identity extracted from the bearer
// token. Restriction is what the archive search layer enforces; handlers pass
// it through without interpreting it.
type AuthenticatedActor struct {
	Number      core.ActorNumber
	Role        core.ActorRole
	Restriction archivedomain.Restriction
}

// Actor returns the identity as a core actor.
func (a AuthenticatedActor) Actor() core.Actor {
	return core.Actor{Number: a.Number, Role: a.Role}
}

// ActorFromContext retrieves the authenticated actor set by AuthMiddleware.
func ActorFromContext(ctx context.Context) (AuthenticatedActor, bool) {
	actor, ok := ctx.Value(AuthenticatedActorContextKey).(AuthenticatedActor)
	return actor, ok
}

type actorClaims struct {
	ActorNumber string `json:"actor_number"`
	ActorRole   string `json:"actor_role"`
	Restriction string `json:"restriction"`
	jwt.RegisteredClaims
}

// AuthMiddleware authenticates requests with an HMAC-signed bearer token and
// puts the resolved actor on the request context.
func AuthMiddleware(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			claims := &actorClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			role, err := core.ParseActorRole(claims.ActorRole)
			if err != nil || claims.ActorNumber == "" {
				logger.WarnContext(r.Context(), "Token carries no usable actor identity",
					"actor_number", claims.ActorNumber, "actor_role", claims.ActorRole)
				http.Error(w, "Invalid actor identity", http.StatusForbidden)
				return
			}

			actor := AuthenticatedActor{
				Number:      core.ActorNumber(claims.ActorNumber),
				Role:        role,
				Restriction: restrictionFromClaim(claims.Restriction, core.ActorNumber(claims.ActorNumber)),
			}

			ctx := context.WithValue(r.Context(), AuthenticatedActorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// restrictionFromClaim maps the token's restriction claim to an archive
// visibility restriction. Anything other than an explicit "none" restricts the
// caller to its own messages.
func restrictionFromClaim(claim string, number core.ActorNumber) archivedomain.Restriction {
	if claim == "none" {
		return archivedomain.NoRestriction()
	}
	return archivedomain.OwnedBy(number)
}
