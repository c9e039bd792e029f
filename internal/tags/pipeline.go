package tags

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/common/logger"
)

// FanOut is the provider stage of a Pipeline.
type FanOut interface {
	Run(ctx context.Context, readme string) *FanOutResult
}

// Refining is the canonicalization stage of a Pipeline.
type Refining interface {
	Refine(ctx context.Context, merged TagList) (*llm.Response, error)
}

// Outcome is everything one tag run produced.
type Outcome struct {
	Providers ProviderResult
	Failures  []ProviderFailure
	Merged    TagList
	Refined   *llm.Response // nil when the refiner was skipped or failed
	RefineErr error
}

// FinalTags parses the refined response. Without one it returns the merged list.
// ErrTagFormat means the refiner answered in prose; callers keep Refined.Content raw.
func (o *Outcome) FinalTags() (TagList, error) {
	if o.Refined == nil {
		return o.Merged, nil
	}
	return ExtractTags(o.Refined.Content)
}

// Pipeline runs fan-out, merge and refine for one README.
type Pipeline struct {
	fanOut    FanOut
	refiner   Refining
	threshold int
}

func NewPipeline(fanOut FanOut, refiner Refining, threshold int) *Pipeline {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pipeline{
		fanOut:    fanOut,
		refiner:   refiner,
		threshold: threshold,
	}
}

// Run never fails because of a provider. It returns an error only when ctx is
// done before the run starts; if every provider fails the outcome is empty.
func (p *Pipeline) Run(ctx context.Context, readme string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "termp.tags.pipeline"})
	sc := logger.StartSpan(ctx, "tags.pipeline")
	defer sc.End()
	ctx = sc.Context()

	result := p.fanOut.Run(ctx, readme)
	for id, list := range result.Tags {
		slog.InfoContext(ctx, "provider tags", "provider_id", id, "tags", list)
	}

	out := &Outcome{
		Providers: result.Tags,
		Failures:  result.Failures,
		Merged:    MergeWithThreshold(p.threshold, result.Ordered()...),
	}

	if len(out.Merged) == 0 {
		slog.InfoContext(ctx, "no tags to refine")
		return out, nil
	}

	resp, err := p.refiner.Refine(ctx, out.Merged)
	if err != nil {
		out.RefineErr = err
		if errors.Is(err, context.Canceled) {
			return out, nil
		}
		sc.RecordError(err)
		slog.WarnContext(ctx, "tag refiner failed, keeping merged tags",
			"error", err,
			"merged", len(out.Merged))
		return out, nil
	}
	out.Refined = resp

	slog.InfoContext(ctx, "tags refined", "merged", len(out.Merged))
	return out, nil
}
