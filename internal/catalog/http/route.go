package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers service catalog routes. Reads are public and cached.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/services")

	// === Public Routes ===
	cached := h.cache.Middleware(CacheGroup)
	group.GET("", cached, h.List)
	group.GET("/:id", cached, h.Get)

	// === Authenticated Routes ===
	group.POST("", authMiddleware, h.Create)
	group.PATCH("/:id", authMiddleware, h.Update)
	group.PUT("/:id", authMiddleware, h.Update)
	group.DELETE("/:id", authMiddleware, h.Delete)
	group.POST("/:id/image", authMiddleware, h.UploadImage)
}
