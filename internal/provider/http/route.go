package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the public provider directory and the caller's
// own profile routes under /me/provider.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, providerMiddleware gin.HandlerFunc) {
	// Public Routes
	public := g.Group("/providers")
	{
		public.GET("", h.List)
		public.GET("/:id", h.Get)
		public.GET("/:id/photo", h.ServePhoto)
		public.GET("/:id/photo/thumbnail", h.ServeThumbnail)
	}

	// Provider Account Routes
	mine := g.Group("/me/provider")
	mine.Use(authMiddleware, providerMiddleware)
	{
		mine.GET("", h.Mine)
		mine.PUT("", h.Upsert)
		mine.PUT("/availability", h.SetDay)
		mine.POST("/photo", h.UploadPhoto)
	}
}
