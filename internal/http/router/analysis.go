package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dogsub/Open-Source-TermP/internal/http/handler"
)

func AnalysisRouter(rg *gin.RouterGroup, h *handler.AnalysisHandler) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
}
