package tags

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/common/logger"
)

const (
	// MaxReadmeRunes bounds the README text sent to each provider.
	MaxReadmeRunes = 1000

	DefaultProviderTimeout = 30 * time.Second

	extractSystemPrompt = "Extract key technologies in JSON format with this format only:\n" +
		`{ "tags": ["tech1", "tech2", ...] }` + "\n" +
		"Return only JSON. No explanation."

	rawLogLimit = 2000
)

// Provider is one tag extraction unit: a model reached through a family client.
type Provider struct {
	ID     string
	Family llm.Family
	Model  string
}

// DefaultProviders returns two Groq-hosted models and one Gemini model.
func DefaultProviders() []Provider {
	return []Provider{
		{ID: "gemma2-9b-it", Family: llm.FamilyGroq, Model: "gemma2-9b-it"},
		{ID: "llama-3.3-70b-versatile", Family: llm.FamilyGroq, Model: "llama-3.3-70b-versatile"},
		{ID: "gemini", Family: llm.FamilyGemini, Model: "gemini-2.0-flash"},
	}
}

// ProviderFailure records why a provider contributed no tags.
type ProviderFailure struct {
	ProviderID string
	Err        error
}

func (f ProviderFailure) Kind() string {
	return ErrorKind(f.Err)
}

// FanOutResult holds what every provider produced in one run.
type FanOutResult struct {
	Tags     ProviderResult
	Failures []ProviderFailure
	order    []string
}

// Ordered returns the tag lists in roster order, skipping providers that failed.
// Merging in this order keeps the result independent of completion order.
func (r *FanOutResult) Ordered() []TagList {
	lists := make([]TagList, 0, len(r.Tags))
	for _, id := range r.order {
		if tags, ok := r.Tags[id]; ok {
			lists = append(lists, tags)
		}
	}
	return lists
}

type CoordinatorOption func(*Coordinator)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Coordinator asks every provider for tags concurrently and joins the results.
type Coordinator struct {
	clients   map[llm.Family]llm.Client
	providers []Provider
	timeout   time.Duration
}

// NewCoordinator creates a coordinator over the given roster. clients holds one
// handle per family, shared by every provider of that family.
func NewCoordinator(clients map[llm.Family]llm.Client, providers []Provider, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		clients:   clients,
		providers: providers,
		timeout:   DefaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Providers() []Provider {
	return c.providers
}

type unitOutcome struct {
	tags TagList
	err  error
}

// Run sends the first MaxReadmeRunes of readme to every provider and waits for all
// of them. A provider that fails is logged and recorded in Failures; it never
// cancels the others. An empty readme makes no calls.
func (c *Coordinator) Run(ctx context.Context, readme string) *FanOutResult {
	result := &FanOutResult{
		Tags:  ProviderResult{},
		order: make([]string, 0, len(c.providers)),
	}
	for _, p := range c.providers {
		result.order = append(result.order, p.ID)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "termp.tags.fanout"})

	if strings.TrimSpace(readme) == "" {
		slog.DebugContext(ctx, "readme is empty, skipping tag providers")
		return result
	}

	sc := logger.StartSpan(ctx, "tags.fanout")
	defer sc.End()
	ctx = sc.Context()

	input := truncateRunes(readme, MaxReadmeRunes)

	// Each unit writes only its own slot; the group has no shared context so a
	// failing unit cannot cancel its siblings.
	outcomes := make([]unitOutcome, len(c.providers))
	var g errgroup.Group
	for i, p := range c.providers {
		g.Go(func() error {
			outcomes[i] = c.runUnit(ctx, p, input)
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range c.providers {
		o := outcomes[i]
		if o.err != nil {
			result.Failures = append(result.Failures, ProviderFailure{ProviderID: p.ID, Err: o.err})
			continue
		}
		result.Tags[p.ID] = o.tags
	}

	slog.InfoContext(ctx, "tag providers finished",
		"succeeded", len(result.Tags),
		"failed", len(result.Failures))

	return result
}

func (c *Coordinator) runUnit(ctx context.Context, p Provider, input string) (out unitOutcome) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Provider: logger.Ptr(p.ID)})

	defer func() {
		if r := recover(); r != nil {
			out = unitOutcome{err: &ProviderCallError{ProviderID: p.ID, Err: fmt.Errorf("panic: %v", r)}}
			slog.ErrorContext(ctx, "tag provider panicked", "panic", r)
		}
	}()

	client, ok := c.clients[p.Family]
	if !ok || client == nil {
		err := &ProviderCallError{ProviderID: p.ID, Err: fmt.Errorf("%w: %s", ErrNoClient, p.Family)}
		slog.WarnContext(ctx, "tag provider skipped", "error", err, "error_kind", ErrorKind(err))
		return unitOutcome{err: err}
	}

	unitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Complete(unitCtx, llm.Request{
		Model:        p.Model,
		SystemPrompt: extractSystemPrompt,
		UserPrompt:   input,
		Temperature:  llm.Temp(0),
	})
	if err != nil {
		err = &ProviderCallError{ProviderID: p.ID, Err: err}
		slog.WarnContext(ctx, "tag provider call failed",
			"error", err,
			"error_kind", ErrorKind(err),
			"duration_ms", time.Since(start).Milliseconds())
		return unitOutcome{err: err}
	}

	slog.DebugContext(ctx, "tag provider raw output",
		"model", p.Model,
		"output", logger.Truncate(resp.Content, rawLogLimit))

	tags, err := ExtractTags(resp.Content)
	if err != nil {
		err = fmt.Errorf("provider %s: %w", p.ID, err)
		slog.WarnContext(ctx, "tag provider returned no tags object",
			"error", err,
			"error_kind", ErrorKind(err))
		return unitOutcome{err: err}
	}

	slog.DebugContext(ctx, "tag provider succeeded",
		"tags", len(tags),
		"duration_ms", time.Since(start).Milliseconds())

	return unitOutcome{tags: tags}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
