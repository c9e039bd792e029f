package tags

import (
	"context"
	"fmt"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/core/config"
)

// Clients creates one client per family used by the given families. Families
// without credentials are left out so their providers fail individually.
func Clients(ctx context.Context, cfg config.Config, families ...llm.Family) (map[llm.Family]llm.Client, error) {
	clients := make(map[llm.Family]llm.Client, len(families))
	for _, family := range families {
		if _, ok := clients[family]; ok {
			continue
		}
		section, ok := cfg.LLM(string(family))
		if !ok {
			return nil, fmt.Errorf("unknown llm family %q", family)
		}
		if !section.Enabled() {
			continue
		}
		client, err := llm.New(ctx, llm.Config{
			Family:  family,
			APIKey:  section.APIKey,
			BaseURL: section.BaseURL,
			Model:   section.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %w", family, err)
		}
		clients[family] = client
	}
	return clients, nil
}

// NewFromConfig wires the roster, refiner and threshold from configuration.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Pipeline, error) {
	providers := make([]Provider, 0, len(cfg.Tagging.Providers))
	families := make([]llm.Family, 0, len(cfg.Tagging.Providers)+1)
	for _, spec := range cfg.Tagging.Providers {
		p := Provider{ID: spec.ID, Family: llm.Family(spec.Family), Model: spec.Model}
		providers = append(providers, p)
		families = append(families, p.Family)
	}
	refinerFamily := llm.Family(cfg.Tagging.RefinerFamily)
	families = append(families, refinerFamily)

	clients, err := Clients(ctx, cfg, families...)
	if err != nil {
		return nil, err
	}

	refinerClient, ok := clients[refinerFamily]
	if !ok {
		return nil, fmt.Errorf("refiner family %q has no credentials", refinerFamily)
	}

	coordinator := NewCoordinator(clients, providers, WithTimeout(cfg.Tagging.Timeout))
	refiner := NewRefiner(refinerClient, cfg.Tagging.RefinerModel, cfg.Tagging.Timeout)
	return NewPipeline(coordinator, refiner, cfg.Tagging.Threshold), nil
}
