package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultProviders is the tag extraction roster used when TAG_PROVIDERS is unset:
// two Groq-hosted models and one Gemini model.
const DefaultProviders = "gemma2-9b-it=groq:gemma2-9b-it,llama-3.3-70b-versatile=groq:llama-3.3-70b-versatile,gemini=gemini:gemini-2.0-flash"

// ProviderSpec names one tag extraction unit. ID is the key its tags are reported under.
type ProviderSpec struct {
	ID     string `yaml:"id"`
	Family string `yaml:"family"`
	Model  string `yaml:"model"`
}

type rosterFile struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// ParseProviders parses "id=family:model,..." entries. The id may be omitted,
// in which case the model name is used.
func ParseProviders(s string) ([]ProviderSpec, error) {
	var specs []ProviderSpec
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var spec ProviderSpec
		rest := entry
		if id, after, ok := strings.Cut(entry, "="); ok {
			spec.ID = strings.TrimSpace(id)
			rest = after
		}

		family, model, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("provider %q: expected family:model", entry)
		}
		spec.Family = strings.TrimSpace(family)
		spec.Model = strings.TrimSpace(model)
		if spec.ID == "" {
			spec.ID = spec.Model
		}

		specs = append(specs, spec)
	}
	return specs, validateRoster(specs)
}

// LoadRoster reads a YAML roster file:
//
//	providers:
//	  - id: gemma2-9b-it
//	    family: groq
//	    model: gemma2-9b-it
func LoadRoster(path string) ([]ProviderSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}

	for i := range f.Providers {
		if f.Providers[i].ID == "" {
			f.Providers[i].ID = f.Providers[i].Model
		}
	}
	if err := validateRoster(f.Providers); err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return f.Providers, nil
}

func validateRoster(specs []ProviderSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("no providers configured")
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Family == "" || s.Model == "" {
			return fmt.Errorf("provider %q: family and model are required", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate provider id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
