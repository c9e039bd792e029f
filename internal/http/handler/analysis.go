package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dogsub/Open-Source-TermP/common/id"
	"github.com/dogsub/Open-Source-TermP/internal/http/dto"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

type AnalysisHandler struct {
	service     service.QueueService
	traceHeader string
}

func NewAnalysisHandler(service service.QueueService, traceHeader string) *AnalysisHandler {
	return &AnalysisHandler{
		service:     service,
		traceHeader: traceHeader,
	}
}

func (h *AnalysisHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid analysis request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := service.Options{
		SkipReadme: req.SkipReadme,
		SkipTags:   req.SkipTags,
		SkipImage:  req.SkipImage,
	}
	if h.traceHeader != "" {
		opts.TraceID = c.GetHeader(h.traceHeader)
	}

	a, err := h.service.Submit(ctx, req.RepoURL, opts)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRepository) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to submit analysis", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit analysis"})
		return
	}

	c.JSON(http.StatusAccepted, dto.CreateAnalysisResponse{
		ID:     dto.NewAnalysisResponse(a).ID,
		Status: string(a.Status),
	})
}

func (h *AnalysisHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	runID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.service.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get analysis", "error", err, "run_id", runID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analysis"})
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalysisResponse(a))
}
