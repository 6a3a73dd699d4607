package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge-backend/internal/logger"
)

const (
	actorHeader  = "X-Actor"
	actorKey     = "actor"
	defaultActor = "admin"
)

type IdentityMiddleware struct {
	log *logger.Logger
}

func NewIdentityMiddleware(log *logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{log: log.With("middleware", "IdentityMiddleware")}
}

// Resolve attaches the acting identity to the request context. Identity
// management itself lives outside this service; the header is trusted as-is
// and absent callers fall back to the admin actor.
func (m *IdentityMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = defaultActor
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor reads the resolved identity from the request context.
func Actor(c *gin.Context) string {
	if v, ok := c.Get(actorKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultActor
}
