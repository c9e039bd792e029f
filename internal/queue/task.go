package queue

// AnalysisTask asks a worker to analyse one repository.
type AnalysisTask struct {
	RunID      int64
	RepoURL    string
	SkipReadme bool
	SkipTags   bool
	SkipImage  bool
	TraceID    string
	Attempt    int
}
