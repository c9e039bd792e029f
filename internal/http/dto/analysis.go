package dto

import (
	"strconv"
	"time"

	"github.com/dogsub/Open-Source-TermP/internal/model"
)

type CreateAnalysisRequest struct {
	RepoURL    string `json:"repo_url" binding:"required"`
	SkipReadme bool   `json:"skip_readme"`
	SkipTags   bool   `json:"skip_tags"`
	SkipImage  bool   `json:"skip_image"`
}

type CreateAnalysisResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AnalysisResponse carries IDs as strings; snowflake IDs overflow JavaScript numbers.
type AnalysisResponse struct {
	ID           string              `json:"id"`
	RepoURL      string              `json:"repo_url"`
	Status       string              `json:"status"`
	Attempts     int32               `json:"attempts"`
	Readme       *string             `json:"readme,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	RawTags      *string             `json:"raw_tags,omitempty"`
	ProviderTags map[string][]string `json:"provider_tags,omitempty"`
	ImageURL     *string             `json:"image_url,omitempty"`
	StepErrors   map[string]string   `json:"step_errors,omitempty"`
	Error        *string             `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

func NewAnalysisResponse(a *model.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:           strconv.FormatInt(a.ID, 10),
		RepoURL:      a.RepoURL,
		Status:       string(a.Status),
		Attempts:     a.Attempts,
		Readme:       a.Readme,
		Tags:         a.Tags,
		RawTags:      a.RawTags,
		ProviderTags: a.ProviderTags,
		ImageURL:     a.ImageURL,
		StepErrors:   a.StepErrors,
		Error:        a.Error,
		CreatedAt:    a.CreatedAt,
		CompletedAt:  a.CompletedAt,
	}
}
