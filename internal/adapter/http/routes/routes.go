package routes

import (
	"context"
	"fmt"

	_ "construction_estimator/docs"
	"construction_estimator/internal/adapter/http/handlers"
	"construction_estimator/internal/config"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Run wires the estimate service from cfg and serves it until the listener fails.
func Run(ctx context.Context, cfg config.Config) error {
	uc, closeStore, err := BuildEstimateUseCase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	router := NewRouter(uc)
	logger.Log.Infof("[estimate][http] listening port=%d store=%s", cfg.Server.Port, cfg.Store.Driver)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		return fmt.Errorf("failed to start the application: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with middlewares, docs, health and /v1 routes.
func NewRouter(uc usecase.IEstimateUseCase) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	setMiddlewares(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", handlers.Healthz)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addEstimateRoutes(v1, handlers.NewEstimateHandler(uc))
	return router
}

func setMiddlewares(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Log.Errorf("[estimate][http] recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
