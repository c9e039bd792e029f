package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dogsub/Open-Source-TermP/common/id"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/queue"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

// QueueService accepts analyses for the background worker.
type QueueService interface {
	Submit(ctx context.Context, repoURL string, opts Options) (*model.Analysis, error)
	Get(ctx context.Context, id int64) (*model.Analysis, error)
}

type queueService struct {
	analyses store.AnalysisStore
	producer queue.Producer
}

func NewQueueService(analyses store.AnalysisStore, producer queue.Producer) QueueService {
	return &queueService{
		analyses: analyses,
		producer: producer,
	}
}

func (s *queueService) Submit(ctx context.Context, repoURL string, opts Options) (*model.Analysis, error) {
	repo, err := forge.ParseRepoURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
	}

	a := &model.Analysis{
		ID:         id.New(),
		RepoURL:    repo.URL,
		Owner:      repo.Owner,
		Name:       repo.Name,
		Status:     model.AnalysisStatusQueued,
		SkipReadme: opts.SkipReadme,
		SkipTags:   opts.SkipTags,
		SkipImage:  opts.SkipImage,
	}
	if err := s.analyses.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	task := queue.AnalysisTask{
		RunID:      a.ID,
		RepoURL:    a.RepoURL,
		SkipReadme: a.SkipReadme,
		SkipTags:   a.SkipTags,
		SkipImage:  a.SkipImage,
		Attempt:    1,
	}
	task.TraceID = opts.TraceID
	if sc := trace.SpanFromContext(ctx).SpanContext(); task.TraceID == "" && sc.IsValid() {
		task.TraceID = sc.TraceID().String()
	}

	if err := s.producer.Enqueue(ctx, task); err != nil {
		if failErr := s.analyses.Fail(ctx, a.ID, "enqueue failed"); failErr != nil {
			slog.ErrorContext(ctx, "failed to mark unqueued analysis", "error", failErr, "run_id", a.ID)
		}
		return nil, fmt.Errorf("enqueueing analysis: %w", err)
	}

	return a, nil
}

func (s *queueService) Get(ctx context.Context, id int64) (*model.Analysis, error) {
	return s.analyses.GetByID(ctx, id)
}
