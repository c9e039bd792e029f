package handler_test

import (
	"context"

	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/service"
)

type mockQueueService struct {
	submitFn func(ctx context.Context, repoURL string, opts service.Options) (*model.Analysis, error)
	getFn    func(ctx context.Context, id int64) (*model.Analysis, error)
}

func (m *mockQueueService) Submit(ctx context.Context, repoURL string, opts service.Options) (*model.Analysis, error) {
	return m.submitFn(ctx, repoURL, opts)
}

func (m *mockQueueService) Get(ctx context.Context, id int64) (*model.Analysis, error) {
	return m.getFn(ctx, id)
}
