// Package readme generates a README for a repository from its code summary.
package readme

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/internal/analyzer"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

const (
	DefaultModel = "qwen/qwen3-32b"
	maxAttempts  = 3
)

type Generator struct {
	llm         llm.Client
	model       string
	maxTokens   int
	backoffBase time.Duration
}

type Option func(*Generator)

// WithBackoff sets the first retry delay; later attempts double it.
func WithBackoff(base time.Duration) Option {
	return func(g *Generator) { g.backoffBase = base }
}

func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

func NewGenerator(client llm.Client, model string, opts ...Option) *Generator {
	if model == "" {
		model = DefaultModel
	}
	g := &Generator{
		llm:         client,
		model:       model,
		backoffBase: time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate analyzes files and asks the model for a README. Reasoning spans in
// the answer are removed.
func (g *Generator) Generate(ctx context.Context, repoName string, files []forge.File) (string, error) {
	summary := analyzer.Analyze(repoName, files)
	prompt, err := BuildPrompt(summary)
	if err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "generating readme",
		"files", summary.Files,
		"imports", len(summary.Imports),
		"functions", len(summary.Functions))

	var resp *llm.Response
	start := time.Now()

	// Retry with exponential backoff (1s, 2s, 4s) on rate limits and server errors.
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = g.llm.Complete(ctx, llm.Request{
			Model:      g.model,
			UserPrompt: prompt,
			MaxTokens:  g.maxTokens,
		})
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return "", fmt.Errorf("readme generation: %w", err)
		}
		if attempt == maxAttempts-1 {
			break
		}
		slog.WarnContext(ctx, "readme generation retry",
			"attempt", attempt+1,
			"error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("readme generation: %w", ctx.Err())
		case <-time.After(g.backoffBase << attempt):
		}
	}
	if err != nil {
		return "", fmt.Errorf("readme generation after %d attempts: %w", maxAttempts, err)
	}

	text := strings.TrimSpace(llm.StripThinking(resp.Content))

	slog.InfoContext(ctx, "readme generated",
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return text, nil
}
