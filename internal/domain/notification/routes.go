package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes registers client routes under a JWT-protected group
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	n := r.Group("/notifications")
	{
		n.GET("", h.List)
		n.GET("/unread", h.ListUnread)
		n.POST("/open", h.MarkOpenedByBody)
		n.POST("/:id/open", h.MarkOpened)
		n.POST("/send", h.Send)
	}
}

// RegisterStreamRoutes registers push channels under a group that accepts ?token=
func RegisterStreamRoutes(r *gin.RouterGroup, h *Handler) {
	n := r.Group("/notifications")
	{
		n.GET("/stream", h.Stream)
		n.GET("/ws", h.WebSocket)
	}
}

// RegisterInternalRoutes registers upstream routes under an internal-token group
func RegisterInternalRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/notifications/bulk", h.Bulk)
}

// RegisterAdminRoutes registers diagnostics under an admin-only group
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/connected-users", h.ConnectedUsers)
}
