package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/invopop/jsonschema"
)

// Family identifies an API family. One client handle is created per family and
// shared read-only by every call that targets it.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyGroq      Family = "groq"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm returned no content")

type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

type Request struct {
	Model        string // Optional: overrides the client's default model
	SystemPrompt string // Optional
	UserPrompt   string
	SchemaName   string // Optional: with Schema, requests structured output where supported
	Schema       any
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Config holds LLM client configuration.
type Config struct {
	Family  Family
	APIKey  string // Required: API key for the provider
	BaseURL string // Optional: custom API endpoint
	Model   string // Default model for requests that do not name one
}

// New creates a Client for cfg.Family.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for %s", cfg.Family)
	}

	switch cfg.Family {
	case FamilyOpenAI:
		return newOpenAIClient(cfg, true), nil
	case FamilyGroq:
		if cfg.BaseURL == "" {
			cfg.BaseURL = groqBaseURL
		}
		return newOpenAIClient(cfg, false), nil
	case FamilyAnthropic:
		return newAnthropicClient(cfg), nil
	case FamilyGemini:
		return newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM family: %s", cfg.Family)
	}
}

// ClientFunc allows functions to implement Client.
// Useful for tests and inline providers.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f ClientFunc) Model() string {
	return "func"
}

func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}

var thinkingSpan = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes every <think>...</think> span emitted by reasoning models,
// markers included. An unterminated <think> is left untouched.
func StripThinking(s string) string {
	return thinkingSpan.ReplaceAllString(s, "")
}

func resolveModel(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}
