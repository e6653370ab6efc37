package routes

import (
	"construction_estimator/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathEstimates = "/estimates"
	PathPing      = "/ping"
)

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET(PathPing, handlers.Ping)
}

func addEstimateRoutes(rg *gin.RouterGroup, h *handlers.EstimateHandler) {
	estimates := rg.Group(PathEstimates)
	{
		estimates.POST("", h.CreateFromRooms)
		estimates.GET("", h.ListEstimates)
		estimates.POST("/plans", h.UploadPlans)
		estimates.GET("/:id", h.GetEstimate)
		estimates.GET("/:id/status", h.GetStatus)
		estimates.GET("/:id/changes", h.ListChanges)
		estimates.POST("/:id/revisions", h.Revise)
	}
}
