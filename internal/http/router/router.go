package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dogsub/Open-Source-TermP/internal/http/handler"
	"github.com/dogsub/Open-Source-TermP/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
}

// SetupRoutes registers every route. A nil queue service leaves the analysis
// routes out, so the tag routes can run without Postgres and Redis.
func SetupRoutes(router *gin.Engine, queueService service.QueueService, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		if queueService != nil {
			analysisHandler := handler.NewAnalysisHandler(queueService, cfg.TraceHeaderName)
			AnalysisRouter(v1.Group("/analyses"), analysisHandler)
		}

		TagsRouter(v1.Group("/tags"), handler.NewTagsHandler())
	}
}
