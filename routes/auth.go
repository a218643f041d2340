package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quantumclimb/curryhouse-api/auth"
	"github.com/quantumclimb/curryhouse-api/config"
)

// SetupAuthRoutes registers the operator login endpoint.
func SetupAuthRoutes(r *gin.Engine, cfg *config.Config) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", auth.LoginHandler(cfg))
	}
}
