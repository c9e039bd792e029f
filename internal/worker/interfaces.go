package worker

import (
	"context"

	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/queue"
	"github.com/dogsub/Open-Source-TermP/internal/service"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Analyzer runs one analysis.
type Analyzer interface {
	Run(ctx context.Context, repoURL string, opts service.Options) (*model.Analysis, error)
}
