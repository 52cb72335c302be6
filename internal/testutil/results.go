package testutil

import (
	"time"

	"github.com/Veraticus/atlas/internal/model"
)

// TestCollege is the college used by canned results.
const TestCollege = "College of Liberal Arts & Sciences"

// Label builds a Field::Subfield pair.
func Label(field, subfield string) model.Label {
	return model.Label{Field: field, Subfield: subfield}
}

// NewResult builds a completed run whose subfield stage yields the given labels.
// The unit and field stages are derived from the labels.
func NewResult(description string, labels ...model.Label) *model.Result {
	req := model.NewRequest(description, TestCollege, model.SourceText)

	var fields, subfields model.Candidates
	seen := make(map[string]bool)
	for i, label := range labels {
		score := 1.0 - float64(i)*0.1
		if !seen[label.Field] {
			seen[label.Field] = true
			fields = append(fields, model.Candidate{Name: label.Field, Score: score})
		}
		subfields = append(subfields, model.Candidate{Name: label.Subfield, Parent: label.Field, Score: score})
	}

	stage := func(s model.Stage, chosen model.Candidates) model.StageResult {
		return model.StageResult{
			Stage:        s,
			Satisfaction: model.Satisfied,
			Chosen:       chosen,
			Report:       model.ValidationReport{Valid: true, Reason: "all selections are in the taxonomy"},
			Attempts:     1,
		}
	}

	return &model.Result{
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
		Request:   req,
		Status:    model.RunComplete,
		Provider:  "mock",
		Model:     "keyword-overlap",
		Stages: []model.StageResult{
			stage(model.StageUnit, model.Candidates{{Name: "Mathematics", Score: 1}}),
			stage(model.StageField, fields),
			stage(model.StageSubfield, subfields),
		},
		Duration: 1500 * time.Millisecond,
	}
}

// WithStatus returns the result after changing its status.
func WithStatus(result *model.Result, status model.RunStatus) *model.Result {
	result.Status = status
	return result
}

// At returns the result after changing its start time.
func At(result *model.Result, startedAt time.Time) *model.Result {
	result.StartedAt = startedAt.UTC()
	return result
}
