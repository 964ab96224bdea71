package middleware

import (
	"net/http"

	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role-gate middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []identity.Role)
}

// RequireRole creates middleware that requires a specific acting role.
// Super admins pass every gate.
func RequireRole(role identity.Role) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole creates middleware that requires any of the listed roles
func RequireAnyRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(RoleConfig{}, roles...)
}

// RequireAnyRoleWithConfig creates role-gate middleware with custom config
func RequireAnyRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		if !claims.ActsAs(roles...) {
			handleRoleDenied(c, cfg, roles, "Acting role lacks access")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role),
			)
		}

		c.Next()
	}
}

// handleRoleDenied handles a failed role check
func handleRoleDenied(c *gin.Context, cfg RoleConfig, roles []identity.Role, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, roles)
		return
	}

	if cfg.Logger != nil {
		required := make([]string, len(roles))
		for i, r := range roles {
			required[i] = string(r)
		}
		cfg.Logger.Warn("Role check failed",
			zap.String("reason", reason),
			zap.Strings("required_any", required),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Access to this resource is forbidden",
		},
	})
}
