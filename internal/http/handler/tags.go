package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dogsub/Open-Source-TermP/internal/http/dto"
	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

const (
	maxTagsBodyBytes = 64 << 10
	maxMergeTags     = 300
)

// TagsHandler exposes the offline tag operations. Neither calls a model.
type TagsHandler struct{}

func NewTagsHandler() *TagsHandler {
	return &TagsHandler{}
}

func (h *TagsHandler) Merge(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTagsBodyBytes)

	var req dto.MergeTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total := 0
	for _, l := range req.Lists {
		total += len(l)
	}
	if total > maxMergeTags {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d tags can be merged at once", maxMergeTags)})
		return
	}

	threshold := tags.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	lists := make([]tags.TagList, len(req.Lists))
	for i, l := range req.Lists {
		lists[i] = l
	}

	c.JSON(http.StatusOK, dto.TagsResponse{Tags: nonNil(tags.MergeWithThreshold(threshold, lists...))})
}

func (h *TagsHandler) Extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTagsBodyBytes)

	var req dto.ExtractTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := tags.ExtractTags(req.Text)
	if err != nil {
		if errors.Is(err, tags.ErrTagFormat) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.TagsResponse{Tags: nonNil(list)})
}

func nonNil(list tags.TagList) []string {
	if list == nil {
		return []string{}
	}
	return list
}
