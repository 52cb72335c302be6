package model

import (
	"fmt"
	"sort"
)

// DefaultScore is assigned when the model omits a score for a choice.
const DefaultScore = 1.0

// Candidate represents a single ranked label proposed for a research description.
type Candidate struct {
	Name      string  `json:"name" yaml:"name"`
	Parent    string  `json:"parent,omitempty" yaml:"parent,omitempty"`
	Rationale string  `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Score     float64 `json:"score" yaml:"score"`
}

// Validate ensures the Candidate has valid data.
func (c *Candidate) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("candidate name is required")
	}

	if c.Score < 0.0 || c.Score > 1.0 {
		return fmt.Errorf("score must be between 0.0 and 1.0, got %.2f", c.Score)
	}

	return nil
}

// Candidates is a ranked list of candidates, best first.
type Candidates []Candidate

// Sort orders candidates by score, highest first. Equal scores keep the
// order the model returned them in.
func (c Candidates) Sort() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Score > c[j].Score
	})
}

// TopN returns the N highest-scoring candidates.
func (c Candidates) TopN(n int) Candidates {
	if n <= 0 {
		return Candidates{}
	}

	c.Sort()

	if n > len(c) {
		n = len(c)
	}

	result := make(Candidates, n)
	copy(result, c[:n])
	return result
}

// Names returns the candidate names in ranked order.
func (c Candidates) Names() []string {
	names := make([]string, len(c))
	for i, candidate := range c {
		names[i] = candidate.Name
	}
	return names
}

// Contains reports whether a candidate with the given name is present.
func (c Candidates) Contains(name string) bool {
	for _, candidate := range c {
		if candidate.Name == name {
			return true
		}
	}
	return false
}

// Validate ensures all candidates in the slice are valid.
func (c Candidates) Validate() error {
	seen := make(map[string]bool)

	for i, candidate := range c {
		if err := candidate.Validate(); err != nil {
			return fmt.Errorf("invalid candidate at index %d: %w", i, err)
		}

		if seen[candidate.Name] {
			return fmt.Errorf("duplicate candidate %q", candidate.Name)
		}
		seen[candidate.Name] = true
	}

	return nil
}
