package classify

import (
	"encoding/json"
	"strings"

	"github.com/Veraticus/atlas/internal/model"
)

// choice is one ranked entry in a classifier or enhancer reply.
type choice struct {
	Score     *float64 `json:"score,omitempty"`
	Name      string   `json:"name"`
	Rationale string   `json:"rationale"`
}

// choicesReply is the reply shape shared by the classifier and the enhancer.
// A bare {"choice": ..., "rationale": ...} is accepted as a single choice.
type choicesReply struct {
	Choices   *[]choice `json:"choices"`
	Choice    string    `json:"choice"`
	Rationale string    `json:"rationale"`
}

// normalize folds the single-choice shape into Choices. It reports false when
// the reply explicitly carried "choices": null or no choices key at all.
func (r *choicesReply) normalize() bool {
	if r.Choices == nil && r.Choice != "" {
		r.Choices = &[]choice{{Name: r.Choice, Rationale: r.Rationale}}
	}
	return r.Choices != nil
}

func (r *choicesReply) list() []choice {
	if r.Choices == nil {
		return nil
	}
	return *r.Choices
}

func parseChoices(raw json.RawMessage) (*choicesReply, error) {
	var reply choicesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// toCandidate converts a reply entry, clamping the score into [0,1].
func (c choice) toCandidate(parent string) model.Candidate {
	score := model.DefaultScore
	if c.Score != nil {
		score = min(max(*c.Score, 0), 1)
	}
	return model.Candidate{
		Name:      strings.TrimSpace(c.Name),
		Parent:    parent,
		Rationale: strings.TrimSpace(c.Rationale),
		Score:     score,
	}
}

// verdictReply is the semantic validator reply.
type verdictReply struct {
	IsValid  *bool    `json:"is_valid"`
	Reason   string   `json:"reason"`
	Removals []string `json:"removals"`
}
