package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task AnalysisTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task AnalysisTask) error {
	if task.Attempt <= 0 {
		task.Attempt = 1
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: taskValues(task),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue analysis: %w", err)
	}

	slog.InfoContext(ctx, "enqueued analysis",
		"run_id", task.RunID,
		"repo_url", task.RepoURL,
		"attempt", task.Attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

func taskValues(task AnalysisTask) map[string]any {
	values := map[string]any{
		"run_id":      task.RunID,
		"repo_url":    task.RepoURL,
		"skip_readme": task.SkipReadme,
		"skip_tags":   task.SkipTags,
		"skip_image":  task.SkipImage,
		"attempt":     task.Attempt,
	}
	if task.TraceID != "" {
		values["trace_id"] = task.TraceID
	}
	return values
}
