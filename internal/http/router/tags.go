package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dogsub/Open-Source-TermP/internal/http/handler"
)

func TagsRouter(rg *gin.RouterGroup, h *handler.TagsHandler) {
	rg.POST("/merge", h.Merge)
	rg.POST("/extract", h.Extract)
}
