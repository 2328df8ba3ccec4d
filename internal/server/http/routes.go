package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) registerRoutes(e *gin.Engine) {
	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for _, role := range s.roles {
		g := e.Group("/auth/" + role)

		g.POST("/join", s.join(role))
		g.POST("/login", s.login(role))
		g.POST("/refresh", s.refresh(role))
		g.POST("/logout", s.logout(role))

		protected := g.Group("/", s.requireAccess(role))
		protected.POST("/logoutAll", s.logoutAll)
		protected.PUT("/password/change", s.changePassword)
		protected.GET("/me", s.me)
		protected.GET("/sessions", s.sessions)

		if role == AdminRole {
			protected.PUT("/principals/:id/status", s.setStatus)
		}
	}
}
