package platform

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /health on the root router and the API info on the versioned group.
func RegisterRoutes(r gin.IRouter, v1 *gin.RouterGroup, h *Handler) {
	r.GET("/health", h.Health)
	v1.GET("", h.Info)
}
