package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PHIConfig configures the protected-health-information guard.
type PHIConfig struct {
	AuditEnabled bool
}

// PHI marks responses as uncacheable and, when auditing is on, logs who read
// or changed which resource. The access log names ids only.
func PHI(config PHIConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")

		c.Next()

		if !config.AuditEnabled {
			return
		}

		event := log.Info().
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP())
		for _, p := range c.Params {
			event = event.Str("param_"+p.Key, p.Value)
		}
		if actor, ok := ActorFrom(c); ok {
			event = event.Str("role", string(actor.Role)).Str("actor_id", actor.ID)
		}
		if reason := c.GetHeader("X-Access-Reason"); reason != "" {
			event = event.Str("reason", reason)
		}
		event.Msg("PHI access")
	}
}
