package router

import (
	"worldforge/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterForgeRoutes 注册世界生成与展示状态路由
func RegisterForgeRoutes(g *gin.RouterGroup, h *handler.ForgeHandler) {
	g.GET("/state", h.GetState)
	g.GET("/events", h.Events)

	// 世界
	g.POST("/world", h.SubmitSeed)
	g.POST("/reset", h.Reset)
	g.DELETE("/error", h.DismissError)
	g.GET("/export", h.Export)

	// 地点图像
	locations := g.Group("/locations")
	{
		locations.POST("/images", h.RequestAllLocationImages)
		locations.POST("/:id/image", h.RequestLocationImage)
		locations.GET("/:id/image", h.DownloadLocationImage)
	}

	// 放大查看
	g.POST("/expanded", h.ExpandImage)
	g.DELETE("/expanded", h.CloseExpandedImage)
}
