package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/atlas/internal/llm"
)

// MockLLM is a deterministic llm.Client for tests and dry runs. Queued
// Replies are returned first, in order. After that it answers from the prompt:
// candidates sharing the most words with the research description are
// chosen, validation always passes, and enhancement proposes nothing.
type MockLLM struct {
	Err     error
	Replies []string
	calls   []MockLLMCall
	mu      sync.Mutex
}

// MockLLMCall records details of one request.
type MockLLMCall struct {
	Request llm.Request
	Reply   string
}

// NewMockLLM creates a mock that replays replies before falling back to
// keyword matching.
func NewMockLLM(replies ...string) *MockLLM {
	return &MockLLM{Replies: replies}
}

// Provider implements the describer used for result metadata.
func (m *MockLLM) Provider() string { return "mock" }

// Model implements the describer used for result metadata.
func (m *MockLLM) Model() string { return "keyword-overlap" }

// GenerateJSON answers a prompt.
func (m *MockLLM) GenerateJSON(_ context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		m.calls = append(m.calls, MockLLMCall{Request: req})
		return llm.Response{}, m.Err
	}

	var reply string
	if len(m.Replies) > 0 {
		reply, m.Replies = m.Replies[0], m.Replies[1:]
	} else {
		reply = answer(req.Prompt)
	}
	m.calls = append(m.calls, MockLLMCall{Request: req, Reply: reply})

	payload, err := llm.ExtractJSON(reply)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Text: reply, JSON: payload, Model: m.Model()}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockLLM) Calls() []MockLLMCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockLLMCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// answer picks the reply kind from the instructions before the description.
func answer(prompt string) string {
	header, body, _ := strings.Cut(prompt, "Research description:\n")
	switch {
	case strings.Contains(header, "is_valid"):
		return `{"is_valid": true, "reason": "labels fit the description", "removals": []}`
	case strings.Contains(header, "NOT in the candidate set"):
		return `{"choices": null}`
	}

	description, rest, _ := strings.Cut(body, "\n\n")
	candidates := candidateNames(rest)
	if len(candidates) == 0 {
		return `{"choices": []}`
	}

	words := wordSet(description)
	type scored struct {
		name    string
		overlap int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		n := 0
		for w := range wordSet(c.text) {
			if words[w] {
				n++
			}
		}
		ranked = append(ranked, scored{name: c.name, overlap: n})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].overlap > ranked[j].overlap })

	type choice struct {
		Name      string  `json:"name"`
		Rationale string  `json:"rationale"`
		Score     float64 `json:"score"`
	}
	var choices []choice
	for _, r := range ranked {
		if r.overlap == 0 || len(choices) == 2 {
			break
		}
		choices = append(choices, choice{
			Name:      r.name,
			Rationale: fmt.Sprintf("shares %d terms with the description", r.overlap),
			Score:     min(1, 0.5+0.1*float64(r.overlap)),
		})
	}
	if len(choices) == 0 {
		choices = append(choices, choice{Name: ranked[0].name, Rationale: "closest available candidate", Score: 0.3})
	}

	data, _ := json.Marshal(map[string]any{"choices": choices})
	return string(data)
}

type candidateLine struct {
	name string
	text string
}

// candidateNames reads the "- Name: description" lines after the candidate
// header in the part of a prompt that follows the description.
func candidateNames(text string) []candidateLine {
	_, rest, ok := strings.Cut(text, "Candidates:\n")
	if !ok {
		_, rest, ok = strings.Cut(text, "Candidate fields:\n")
		if !ok {
			return nil
		}
	}

	var out []candidateLine
	for _, line := range strings.Split(rest, "\n") {
		if !strings.HasPrefix(line, "- ") {
			break
		}
		line = strings.TrimPrefix(line, "- ")
		name, _, _ := strings.Cut(line, ": ")
		out = append(out, candidateLine{name: name, text: line})
	}
	return out
}

var stopWords = map[string]bool{
	"and": true, "the": true, "of": true, "for": true, "in": true, "on": true,
	"a": true, "an": true, "to": true, "with": true, "by": true, "as": true,
	"is": true, "are": true, "its": true, "from": true, "at": true, "or": true,
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(w) > 2 && !stopWords[w] {
			set[w] = true
		}
	}
	return set
}
