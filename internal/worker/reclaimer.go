package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/internal/queue"
)

// maxClaimPages bounds one cycle's walk over the pending entries list.
const maxClaimPages = 10

// PendingClaimer is the slice of the redis client the reclaimer needs.
type PendingClaimer interface {
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

type ReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer takes over analysis tasks that another worker read but never
// acknowledged, typically because it crashed mid-analysis, and hands them to the
// same handler the worker uses so attempts and the DLQ still apply.
type Reclaimer struct {
	client    PendingClaimer
	cfg       ReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(client PendingClaimer, cfg ReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *Reclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Reclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reclaims every Interval until Stop is called or ctx is done.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "termp.worker.reclaimer"})
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started", "interval", r.cfg.Interval, "min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			n, err := r.ReclaimOnce(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "reclaim cycle failed", "error", err, "reclaimed", n)
			} else if n > 0 {
				slog.InfoContext(ctx, "reclaim cycle finished", "reclaimed", n)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce claims idle pending tasks page by page with XAUTOCLAIM and
// processes each. It returns how many tasks were claimed.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) (int, error) {
	claimed := 0
	cursor := "0-0"
	for page := 0; page < maxClaimPages; page++ {
		msgs, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.cfg.Stream,
			Group:    r.cfg.Group,
			Consumer: r.cfg.Consumer,
			MinIdle:  r.cfg.MinIdle,
			Start:    cursor,
			Count:    r.cfg.BatchSize,
		}).Result()
		if err != nil {
			return claimed, fmt.Errorf("xautoclaim: %w", err)
		}

		for _, msg := range msgs {
			claimed++
			r.handleClaimed(ctx, msg)
		}

		if next == "0-0" || next == "" {
			break
		}
		cursor = next
	}
	return claimed, nil
}

func (r *Reclaimer) handleClaimed(ctx context.Context, msg redis.XMessage) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(msg.ID)})

	task, err := queue.ParseMessage(msg)
	if err != nil {
		// Unparseable tasks would be claimed again every cycle.
		slog.ErrorContext(ctx, "dropping unparseable reclaimed task", "error", err)
		if ackErr := r.consumer.Ack(ctx, queue.Message{ID: msg.ID, Raw: msg}); ackErr != nil {
			slog.ErrorContext(ctx, "failed to ack unparseable task", "error", ackErr)
		}
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(task.RunID)})
	slog.InfoContext(ctx, "resuming abandoned analysis", "repo_url", task.RepoURL, "attempt", task.Attempt)

	start := time.Now()
	if err := r.processor(ctx, task); err != nil {
		slog.ErrorContext(ctx, "reclaimed analysis failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "reclaimed analysis processed", "duration_ms", time.Since(start).Milliseconds())
}
