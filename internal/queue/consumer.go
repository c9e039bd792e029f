package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dogsub/Open-Source-TermP/common/logger"
)

// ConsumerConfig names the analysis stream, its consumer group and the DLQ.
type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	DLQMaxLen    int64         // approximate cap on DLQ length; 0 keeps everything
	BatchSize    int64         // tasks per XREADGROUP
	Block        time.Duration // XREADGROUP block time
	RequeueDelay time.Duration // pause before a failed task is appended again
}

// Message is one analysis task read from the stream.
type Message struct {
	ID string
	AnalysisTask
	Raw redis.XMessage
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

// NewRedisConsumer creates the consumer group if it does not exist yet.
func NewRedisConsumer(ctx context.Context, client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	c := &RedisConsumer{client: client, cfg: cfg}

	// "0" lets a recreated group pick up tasks already in the stream.
	err := client.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("creating consumer group %s: %w", cfg.Group, err)
	}
	return c, nil
}

// Read blocks up to cfg.Block for new tasks. Entries that are not valid
// analysis tasks are acknowledged and skipped.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "termp.queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// ">" only returns never-delivered entries; abandoned ones belong to the reclaimer.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var (
		messages []Message
		invalid  []string
	)
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			msg, err := ParseMessage(raw)
			if err != nil {
				slog.ErrorContext(ctx, "skipping invalid analysis task", "error", err, "message_id", raw.ID)
				invalid = append(invalid, raw.ID)
				continue
			}
			messages = append(messages, msg)
		}
	}

	if len(invalid) > 0 {
		if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, invalid...).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to ack invalid tasks", "error", err, "count", len(invalid))
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", msg.ID, err)
	}
	return nil
}

// Requeue waits RequeueDelay, then in one MULTI acknowledges msg and appends the
// same task with the next attempt number, so a crash cannot lose or duplicate it.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if c.cfg.RequeueDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RequeueDelay):
		}
	}

	task := msg.AnalysisTask
	task.Attempt = msg.Attempt + 1
	values := taskValues(task)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if err := c.ackAndAdd(ctx, msg.ID, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}); err != nil {
		return fmt.Errorf("requeueing run %d: %w", msg.RunID, err)
	}

	slog.InfoContext(ctx, "analysis requeued", "next_attempt", task.Attempt, "reason", errMsg)
	return nil
}

// SendDLQ moves msg to the dead letter stream with its final error.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	values := taskValues(msg.AnalysisTask)
	values["error"] = errMsg
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	args := &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}
	if c.cfg.DLQMaxLen > 0 {
		args.MaxLen = c.cfg.DLQMaxLen
		args.Approx = true
	}
	if err := c.ackAndAdd(ctx, msg.ID, args); err != nil {
		return fmt.Errorf("moving run %d to %s: %w", msg.RunID, c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "analysis moved to DLQ", "final_error", errMsg, "dlq_stream", c.cfg.DLQStream)
	return nil
}

func (c *RedisConsumer) ackAndAdd(ctx context.Context, id string, add *redis.XAddArgs) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAck(ctx, c.cfg.Stream, c.cfg.Group, id)
		pipe.XAdd(ctx, add)
		return nil
	})
	return err
}

// ParseMessage decodes a stream entry written by the producer or by Requeue.
func ParseMessage(msg redis.XMessage) (Message, error) {
	runID, err := parseInt64(msg.Values, "run_id")
	if err != nil {
		return Message{}, err
	}
	if runID <= 0 {
		return Message{}, fmt.Errorf("invalid run_id %d", runID)
	}
	repoURL, err := parseOptionalString(msg.Values, "repo_url")
	if err != nil {
		return Message{}, err
	}
	if repoURL == "" {
		return Message{}, fmt.Errorf("missing repo_url")
	}

	skipReadme, err := parseOptionalBool(msg.Values, "skip_readme")
	if err != nil {
		return Message{}, err
	}
	skipTags, err := parseOptionalBool(msg.Values, "skip_tags")
	if err != nil {
		return Message{}, err
	}
	skipImage, err := parseOptionalBool(msg.Values, "skip_image")
	if err != nil {
		return Message{}, err
	}

	traceID, err := parseOptionalString(msg.Values, "trace_id")
	if err != nil {
		return Message{}, err
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	return Message{
		ID: msg.ID,
		AnalysisTask: AnalysisTask{
			RunID:      runID,
			RepoURL:    repoURL,
			SkipReadme: skipReadme,
			SkipTags:   skipTags,
			SkipImage:  skipImage,
			TraceID:    traceID,
			Attempt:    attempt,
		},
		Raw: msg,
	}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

// go-redis writes bools as "1" and "0".
func parseOptionalBool(values map[string]any, key string) (bool, error) {
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(fmt.Sprint(raw))
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
