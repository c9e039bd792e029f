// Package tags turns README text into a consensus list of technology tags:
// several models extract tags concurrently, the lists are merged with fuzzy
// de-duplication, and one more model call canonicalizes the merged list.
package tags

import (
	"context"
	"errors"
	"fmt"
)

// TagList is an ordered list of tags from one source. Case and punctuation are
// kept as the model produced them.
type TagList []string

// ProviderResult maps a provider ID to the tags it produced in one run.
type ProviderResult map[string]TagList

// Document is the {"tags": [...]} shape models are asked to return and the
// shape written to TAGS.json.
type Document struct {
	Tags TagList `json:"tags" jsonschema:"description=Key technologies, frameworks and libraries"`
}

var (
	// ErrTagFormat means the text holds nothing shaped like {"tags": [...]}.
	ErrTagFormat = errors.New("no tags object found in model output")

	// ErrNoClient means no client is configured for a provider's family.
	ErrNoClient = errors.New("no client configured for provider family")
)

// ProviderCallError wraps a failed call to one tag provider.
type ProviderCallError struct {
	ProviderID string
	Err        error
}

func (e *ProviderCallError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.ProviderID, e.Err)
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

// ErrorKind buckets a unit failure for logs and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTagFormat):
		return "format"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrNoClient):
		return "config"
	default:
		return "call"
	}
}
