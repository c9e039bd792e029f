package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/internal/queue"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

type Config struct {
	MaxAttempts int
	ErrorDelay  time.Duration // pause after a failed batch read
}

type Worker struct {
	consumer Consumer
	analyzer Analyzer
	analyses store.AnalysisStore
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, analyzer Analyzer, analyses store.AnalysisStore, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorDelay <= 0 {
		cfg.ErrorDelay = time.Second
	}
	return &Worker{
		consumer:  consumer,
		analyzer:  analyzer,
		analyses:  analyses,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "termp.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-w.stopCh:
				case <-time.After(w.cfg.ErrorDelay):
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.Handle(ctx, msg)
	}

	return nil
}

// Handle processes msg and requeues it or moves it to the DLQ on failure.
// The reclaimer uses it for messages it claims.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"run_id", msg.RunID)
		w.handleFailedMessage(ctx, msg, err)
		return err
	}
	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"run_id", msg.RunID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs the analysis a message asks for and stores the result.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(msg.RunID),
		MessageID: logger.Ptr(msg.ID),
	})
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message")
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "processing message",
		"repo_url", msg.RepoURL,
		"attempt", msg.Attempt)

	if err := w.analyses.MarkRunning(ctx, msg.RunID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "analysis row missing, dropping message")
			return w.ack(ctx, msg)
		}
		return fmt.Errorf("marking analysis running: %w", err)
	}

	a, err := w.analyzer.Run(ctx, msg.RepoURL, service.Options{
		RunID:      msg.RunID,
		SkipReadme: msg.SkipReadme,
		SkipTags:   msg.SkipTags,
		SkipImage:  msg.SkipImage,
	})
	if err != nil {
		sc.RecordError(err)
		if errors.Is(err, service.ErrInvalidRepository) {
			// Retrying cannot fix the URL.
			if failErr := w.analyses.Fail(ctx, msg.RunID, err.Error()); failErr != nil {
				return fmt.Errorf("failing analysis: %w", failErr)
			}
			return w.ack(ctx, msg)
		}
		return err
	}

	if err := w.analyses.Complete(ctx, a); err != nil {
		return fmt.Errorf("completing analysis: %w", err)
	}

	if a.Failed() {
		return fmt.Errorf("every requested step failed: %v", a.StepErrors)
	}

	slog.InfoContext(ctx, "analysis stored",
		"status", a.Status,
		"failed_steps", len(a.StepErrors))
	return w.ack(ctx, msg)
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) error {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The reclaimer redelivers unacked messages; reprocessing a run is safe.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"run_id", msg.RunID,
			"attempts", msg.Attempt)
		if failErr := w.analyses.Fail(ctx, msg.RunID, err.Error()); failErr != nil {
			slog.ErrorContext(ctx, "failed to mark analysis failed", "error", failErr)
		}
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"run_id", msg.RunID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
