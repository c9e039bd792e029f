package tags

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dogsub/Open-Source-TermP/common/llm"
)

const refinerInstruction = `Extract only key technologies in JSON format as "tags": []`

// Refiner asks one model to reduce a merged tag list to its key technologies.
type Refiner struct {
	client  llm.Client
	model   string
	schema  any
	timeout time.Duration
}

// NewRefiner creates a refiner. An empty model uses the client's default and a
// non-positive timeout uses DefaultProviderTimeout.
func NewRefiner(client llm.Client, model string, timeout time.Duration) *Refiner {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Refiner{
		client:  client,
		model:   model,
		schema:  llm.GenerateSchema[Document](),
		timeout: timeout,
	}
}

// Refine returns the model's raw response. Callers parse it with ExtractTags.
func (r *Refiner) Refine(ctx context.Context, merged TagList) (*llm.Response, error) {
	prompt, err := RefinerPrompt(merged)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Complete(callCtx, llm.Request{
		Model:      r.model,
		UserPrompt: prompt,
		SchemaName: "tags",
		Schema:     r.schema,
	})
	if err != nil {
		return nil, fmt.Errorf("refining tags: %w", err)
	}

	slog.DebugContext(ctx, "tag refiner raw output", "output", resp.Content)
	return resp, nil
}

// RefinerPrompt renders the merged list as {"tags": ["a", "b"]} followed by the
// instruction. Non-ASCII and HTML characters are written as-is.
func RefinerPrompt(merged TagList) (string, error) {
	items := make([]string, 0, len(merged))
	for _, tag := range merged {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(tag); err != nil {
			return "", fmt.Errorf("encoding tag %q: %w", tag, err)
		}
		items = append(items, strings.TrimSuffix(buf.String(), "\n"))
	}
	return fmt.Sprintf(`{"tags": [%s]} %s`, strings.Join(items, ", "), refinerInstruction), nil
}
