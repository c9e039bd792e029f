package tags

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dogsub/Open-Source-TermP/common/llm"
)

var tagsShape = regexp.MustCompile(`\{[^{}]*"tags"\s*:\s*\[`)

// ExtractTags finds the first JSON object with a "tags" array in free-form model
// output. Reasoning spans are dropped first, and prose, code fences or other keys
// around the object are ignored.
//
// Text with no tags shape at all yields ErrTagFormat. Text that has the shape but
// no decodable object, such as a truncated response, yields an empty list.
func ExtractTags(text string) (TagList, error) {
	text = llm.StripThinking(text)

	for i := strings.IndexByte(text, '{'); i >= 0; {
		if tags, ok := decodeTagObject(text[i:]); ok {
			return tags, nil
		}
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}

	if tagsShape.MatchString(text) {
		return TagList{}, nil
	}
	return nil, ErrTagFormat
}

// decodeTagObject decodes the single JSON value at the start of s and reports
// whether it is an object holding a string array under "tags".
func decodeTagObject(s string) (TagList, bool) {
	var obj map[string]json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&obj); err != nil {
		return nil, false
	}

	raw, ok := obj["tags"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, false
	}

	tags := TagList{}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false
	}
	return tags, true
}
