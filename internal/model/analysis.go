package model

import "time"

type AnalysisStatus string

const (
	AnalysisStatusQueued    AnalysisStatus = "queued"
	AnalysisStatusRunning   AnalysisStatus = "running"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Step names used as keys of StepErrors.
const (
	StepFetch  = "fetch"
	StepReadme = "readme"
	StepTags   = "tags"
	StepImage  = "image"
)

// StepErrors maps a step name to the error that stopped it.
type StepErrors map[string]string

// Analysis is one run of termp over a repository.
type Analysis struct {
	ID      int64          `json:"id,string"`
	RepoURL string         `json:"repo_url"`
	Owner   string         `json:"owner"`
	Name    string         `json:"name"`
	Status  AnalysisStatus `json:"status"`

	SkipReadme bool  `json:"skip_readme"`
	SkipTags   bool  `json:"skip_tags"`
	SkipImage  bool  `json:"skip_image"`
	Attempts   int32 `json:"attempts"`

	Readme       *string             `json:"readme,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	RawTags      *string             `json:"raw_tags,omitempty"` // refiner output that held no tag list
	ProviderTags map[string][]string `json:"provider_tags,omitempty"`
	ImageURL     *string             `json:"image_url,omitempty"`
	StepErrors   StepErrors          `json:"step_errors,omitempty"`
	Error        *string             `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (a *Analysis) FullName() string {
	return a.Owner + "/" + a.Name
}

// RecordStepError notes a failed step. Other steps keep running.
func (a *Analysis) RecordStepError(step string, err error) {
	if err == nil {
		return
	}
	if a.StepErrors == nil {
		a.StepErrors = StepErrors{}
	}
	a.StepErrors[step] = err.Error()
}

// Failed reports whether every requested step failed.
func (a *Analysis) Failed() bool {
	if _, ok := a.StepErrors[StepFetch]; ok {
		return true
	}
	requested := 0
	failed := 0
	for step, skipped := range map[string]bool{StepReadme: a.SkipReadme, StepTags: a.SkipTags, StepImage: a.SkipImage} {
		if skipped {
			continue
		}
		requested++
		if _, ok := a.StepErrors[step]; ok {
			failed++
		}
	}
	return requested > 0 && failed == requested
}
