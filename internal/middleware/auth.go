package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// AccessTokenCookie carries the access token for page requests.
const AccessTokenCookie = "access_token"

const (
	userIDKey = "userID"
	actorKey  = "actor"
)

// ActorResolver turns an authenticated user id into its authorization context.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (policy.Actor, error)
}

// AuthMiddleware creates a middleware for JWT authentication. The token is
// read from the Authorization header, falling back to the access token
// cookie. The resolved policy.Actor is stored on the context.
func AuthMiddleware(cfg *config.Config, resolver ActorResolver, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.Unauthorized(c, "User no longer exists")
			} else {
				logger.Error().Err(err).Str("user_id", claims.UserID).Msg("resolve actor")
				utils.InternalServerError(c, "Failed to load user")
			}
			c.Abort()
			return
		}

		// Set user information in context for downstream handlers
		c.Set(userIDKey, claims.UserID)
		c.Set(actorKey, actor)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// RequireManager lets only managers through. It should be used *after*
// AuthMiddleware.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActorFromContext(c)
		if !ok {
			utils.InternalServerError(c, "Actor not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}
		if !actor.Manager {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// GetActorFromContext returns the actor stored by AuthMiddleware.
func GetActorFromContext(c *gin.Context) (policy.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}

// SetActor stores an actor on the context. Handler tests use it to skip
// token handling.
func SetActor(c *gin.Context, actor policy.Actor) {
	c.Set(userIDKey, actor.UserID)
	c.Set(actorKey, actor)
}
