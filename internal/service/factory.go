package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/core/config"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/image"
	"github.com/dogsub/Open-Source-TermP/internal/readme"
	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

// NewAnalysisServiceFromConfig wires forges, LLM clients and the image
// selector. Steps whose model family has no API key are left unconfigured.
func NewAnalysisServiceFromConfig(ctx context.Context, cfg config.Config) (AnalysisService, error) {
	deps := AnalysisDeps{
		Forges: func(repo forge.Repo) (forge.Forge, error) { return forge.New(repo, cfg) },
	}

	gen, err := newReadmeGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if gen != nil {
		deps.Readme = gen
	}

	pipeline, err := tags.NewFromConfig(ctx, cfg)
	if err != nil {
		slog.WarnContext(ctx, "tag extraction disabled", "error", err)
	} else {
		deps.Tags = pipeline
	}

	hc := &http.Client{Timeout: cfg.Fetch.Timeout}
	deps.Images = func(f forge.Forge) ImageSelector { return image.NewSelector(f, hc) }

	return NewAnalysisService(deps), nil
}

func newReadmeGenerator(ctx context.Context, cfg config.Config) (*readme.Generator, error) {
	section, ok := cfg.LLM(cfg.Readme.Family)
	if !ok {
		return nil, fmt.Errorf("unknown readme llm family %q", cfg.Readme.Family)
	}
	if !section.Enabled() {
		slog.WarnContext(ctx, "readme generation disabled", "family", cfg.Readme.Family)
		return nil, nil
	}
	client, err := llm.New(ctx, llm.Config{
		Family:  llm.Family(cfg.Readme.Family),
		APIKey:  section.APIKey,
		BaseURL: section.BaseURL,
		Model:   cfg.Readme.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating readme client: %w", err)
	}
	return readme.NewGenerator(client, cfg.Readme.Model, readme.WithMaxTokens(cfg.Readme.MaxTokens)), nil
}
