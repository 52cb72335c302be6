package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/atlas/internal/common"
)

var (
	// fencedPattern matches a JSON object inside a markdown code block.
	fencedPattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(\\{.*\\})\\s*```")
	// objectPattern matches the outermost braces of any JSON object.
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the JSON object out of a model reply. Markdown fences,
// surrounding prose, and trailing commas are tolerated.
func ExtractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", common.ErrMalformedResponse)
	}

	raw := ""
	if m := fencedPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else if m := objectPattern.FindString(content); m != "" {
		raw = m
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", common.ErrMalformedResponse)
	}

	if !json.Valid([]byte(raw)) {
		raw = trailingCommaPattern.ReplaceAllString(raw, "$1")
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%w: invalid JSON in reply", common.ErrMalformedResponse)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return buf.Bytes(), nil
}

func decodeJSON(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty payload", common.ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return nil
}

// newResponse builds a Response from raw reply text.
func newResponse(text, model string, usage Usage) (Response, error) {
	payload, err := ExtractJSON(text)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text, JSON: payload, Model: model, Usage: usage}, nil
}
