// Package model defines the core domain models used throughout the application.
package model

import (
	"time"
)

// Stage names a step of the classification pipeline.
type Stage string

// Pipeline stages.
const (
	StageUnit     Stage = "unit"
	StageField    Stage = "field"
	StageSubfield Stage = "subfield"
	StageEnhance  Stage = "enhance"
)

// Satisfaction is the state after validation.
type Satisfaction string

// Satisfaction values.
const (
	Satisfied   Satisfaction = "satisfied"
	Unsatisfied Satisfaction = "unsatisfied"
)

// RunStatus is the overall outcome of a pipeline run.
type RunStatus string

// Run statuses.
const (
	RunComplete    RunStatus = "complete"
	RunUnsatisfied RunStatus = "unsatisfied"
	RunFailed      RunStatus = "failed"
)

// Feedback adjusts a candidate pool between revisions.
type Feedback struct {
	Removals  []string `json:"removals,omitempty" yaml:"removals,omitempty"`
	Additions []string `json:"additions,omitempty" yaml:"additions,omitempty"`
}

// IsEmpty reports whether the feedback changes nothing.
func (f Feedback) IsEmpty() bool {
	return len(f.Removals) == 0 && len(f.Additions) == 0
}

// Merge combines two feedback sets, dropping duplicates.
func (f Feedback) Merge(other Feedback) Feedback {
	return Feedback{
		Removals:  mergeUnique(f.Removals, other.Removals),
		Additions: mergeUnique(f.Additions, other.Additions),
	}
}

func mergeUnique(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ValidationReport is the structured verdict of a validator.
type ValidationReport struct {
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Removals    []string `json:"removals,omitempty" yaml:"removals,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Valid       bool     `json:"valid" yaml:"valid"`
}

// Satisfaction maps the report onto a satisfaction state.
func (r ValidationReport) Satisfaction() Satisfaction {
	if r.Valid {
		return Satisfied
	}
	return Unsatisfied
}

// StageResult captures the outcome of one pipeline stage.
type StageResult struct {
	Stage        Stage            `json:"stage" yaml:"stage"`
	Satisfaction Satisfaction     `json:"satisfaction" yaml:"satisfaction"`
	Chosen       Candidates       `json:"chosen" yaml:"chosen"`
	Report       ValidationReport `json:"report" yaml:"report"`
	Feedback     Feedback         `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Attempts     int              `json:"attempts" yaml:"attempts"`
}

// Event is a single entry of a run's audit trail.
type Event struct {
	At    time.Time      `json:"at" yaml:"at"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Stage Stage          `json:"stage,omitempty" yaml:"stage,omitempty"`
	Name  string         `json:"name" yaml:"name"`
}

// Label pairs a field with one of its subfields.
type Label struct {
	Field    string `json:"field" yaml:"field"`
	Subfield string `json:"subfield" yaml:"subfield"`
}

// String renders the label as Field::Subfield.
func (l Label) String() string {
	return l.Field + "::" + l.Subfield
}

// Result is the full outcome of a classification run across all stages.
type Result struct {
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Request   Request       `json:"request" yaml:"request"`
	Status    RunStatus     `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Provider  string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	Stages    []StageResult `json:"stages" yaml:"stages"`
	NewFields Candidates    `json:"new_fields,omitempty" yaml:"new_fields,omitempty"`
	Trace     []Event       `json:"trace,omitempty" yaml:"trace,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Stage returns the result for the given stage, or nil if it never ran.
func (r *Result) Stage(stage Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			return &r.Stages[i]
		}
	}
	return nil
}

// Chosen returns the candidates selected at a stage.
func (r *Result) Chosen(stage Stage) Candidates {
	if s := r.Stage(stage); s != nil {
		return s.Chosen
	}
	return nil
}

// Units returns the chosen units.
func (r *Result) Units() Candidates { return r.Chosen(StageUnit) }

// Fields returns the chosen fields.
func (r *Result) Fields() Candidates { return r.Chosen(StageField) }

// Subfields returns the chosen subfields.
func (r *Result) Subfields() Candidates { return r.Chosen(StageSubfield) }

// Labels returns the Field::Subfield pairs of the run, ordered by subfield rank.
// Subfields without a recorded parent are skipped.
func (r *Result) Labels() []Label {
	subfields := r.Subfields()
	labels := make([]Label, 0, len(subfields))
	for _, sub := range subfields {
		if sub.Parent == "" {
			continue
		}
		labels = append(labels, Label{Field: sub.Parent, Subfield: sub.Name})
	}
	return labels
}

// Record appends an event to the trace.
func (r *Result) Record(stage Stage, name string, attrs map[string]any) {
	r.Trace = append(r.Trace, Event{
		At:    time.Now().UTC(),
		Stage: stage,
		Name:  name,
		Attrs: attrs,
	})
}

// RunSummary is a compact view of a stored run.
type RunSummary struct {
	CreatedAt   time.Time
	ID          string
	College     string
	Description string
	Status      RunStatus
	Labels      []string
	Duration    time.Duration
}
