package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

// Format selects how results are rendered.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name means text.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (want text, json or yaml)", common.ErrInvalidConfig, name)
	}
}

// ResultView is the serialized shape of a classification result.
type ResultView struct {
	ID          string              `json:"id" yaml:"id"`
	Description string              `json:"description" yaml:"description"`
	College     string              `json:"college,omitempty" yaml:"college,omitempty"`
	Status      model.RunStatus     `json:"status" yaml:"status"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Labels      []model.Label       `json:"labels" yaml:"labels"`
	Units       model.Candidates    `json:"units" yaml:"units"`
	Fields      model.Candidates    `json:"fields" yaml:"fields"`
	Subfields   model.Candidates    `json:"subfields" yaml:"subfields"`
	NewFields   model.Candidates    `json:"new_fields,omitempty" yaml:"new_fields,omitempty"`
	Provider    string              `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string              `json:"model,omitempty" yaml:"model,omitempty"`
	Stages      []model.StageResult `json:"stages,omitempty" yaml:"stages,omitempty"`
	Trace       []model.Event       `json:"trace,omitempty" yaml:"trace,omitempty"`
	DurationMS  int64               `json:"duration_ms" yaml:"duration_ms"`
}

// NewResultView flattens a result. Stages and trace are included only when verbose.
func NewResultView(r *model.Result, verbose bool) ResultView {
	view := ResultView{
		ID:          r.Request.ID,
		Description: strings.TrimSpace(r.Request.Description),
		College:     r.Request.College,
		Status:      r.Status,
		Error:       r.Error,
		Labels:      r.Labels(),
		Units:       nonNil(r.Units()),
		Fields:      nonNil(r.Fields()),
		Subfields:   nonNil(r.Subfields()),
		NewFields:   r.NewFields,
		Provider:    r.Provider,
		Model:       r.Model,
		DurationMS:  r.Duration.Milliseconds(),
	}
	if verbose {
		view.Stages = r.Stages
		view.Trace = r.Trace
	}
	return view
}

func nonNil(c model.Candidates) model.Candidates {
	if c == nil {
		return model.Candidates{}
	}
	return c
}

// Formatter writes results in the configured format.
type Formatter struct {
	w       io.Writer
	format  Format
	verbose bool
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(w io.Writer, format Format, verbose bool) *Formatter {
	if format == "" {
		format = FormatText
	}
	return &Formatter{w: w, format: format, verbose: verbose}
}

// Result writes a single result.
func (f *Formatter) Result(r *model.Result) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(NewResultView(r, f.verbose))
	case FormatYAML:
		return f.encodeYAML(NewResultView(r, f.verbose))
	default:
		_, err := io.WriteString(f.w, f.renderResult(r))
		return err
	}
}

// Results writes several results: a JSON array, a YAML sequence, or text
// blocks separated by a blank line.
func (f *Formatter) Results(results []*model.Result) error {
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		if r != nil {
			views = append(views, NewResultView(r, f.verbose))
		}
	}

	switch f.format {
	case FormatJSON:
		return f.encodeJSON(views)
	case FormatYAML:
		return f.encodeYAML(views)
	}

	for i, r := range results {
		if r == nil {
			continue
		}
		if i > 0 {
			if _, err := fmt.Fprintln(f.w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(f.w, f.renderResult(r)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) renderResult(r *model.Result) string {
	var b strings.Builder

	b.WriteString(FormatTitle("Research classification") + "  " + FormatStatus(r.Status) + "\n")
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Request:"), r.Request.ID)
	if r.Request.College != "" {
		fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("College:"), r.Request.College)
	}
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Description:"), snippet(r.Request.Description, 160))

	for _, stage := range []model.Stage{model.StageUnit, model.StageField, model.StageSubfield} {
		s := r.Stage(stage)
		if s == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(f.renderStage(s))
	}

	b.WriteString("\n" + SectionStyle.Render("Labels") + "\n")
	labels := r.Labels()
	if len(labels) == 0 {
		b.WriteString("  " + SubtleStyle.Render("none") + "\n")
	}
	for _, label := range labels {
		fmt.Fprintf(&b, "  %s %s\n", LabelIcon, BoldStyle.Render(label.String()))
	}

	if len(r.NewFields) > 0 {
		b.WriteString("\n" + SectionStyle.Render("Suggested new fields") + "\n")
		for _, c := range r.NewFields {
			line := "  • " + c.Name
			if c.Rationale != "" {
				line += SubtleStyle.Render(" (" + c.Rationale + ")")
			}
			b.WriteString(line + "\n")
		}
	}

	if r.Error != "" {
		b.WriteString("\n" + FormatError(r.Error) + "\n")
	}

	footer := r.Duration.Round(time.Millisecond).String()
	if r.Provider != "" {
		footer += " · " + r.Provider
		if r.Model != "" {
			footer += "/" + r.Model
		}
	}
	b.WriteString("\n" + SubtleStyle.Render(footer) + "\n")
	return b.String()
}

var stageTitles = map[model.Stage]string{
	model.StageUnit:     "Units",
	model.StageField:    "Fields",
	model.StageSubfield: "Subfields",
}

func (f *Formatter) renderStage(s *model.StageResult) string {
	var b strings.Builder

	attempts := "1 attempt"
	if s.Attempts != 1 {
		attempts = fmt.Sprintf("%d attempts", s.Attempts)
	}
	fmt.Fprintf(&b, "%s  %s  %s\n",
		SectionStyle.Render(stageTitles[s.Stage]),
		FormatValid(s.Satisfaction == model.Satisfied),
		SubtleStyle.Render(attempts))

	width := 0
	for _, c := range s.Chosen {
		width = max(width, len([]rune(displayName(c))))
	}
	for _, c := range s.Chosen {
		name := displayName(c)
		pad := strings.Repeat(" ", width-len([]rune(name)))
		fmt.Fprintf(&b, "  %s%s  %s", name, pad, FormatScore(c.Score))
		if f.verbose && c.Rationale != "" {
			b.WriteString("  " + SubtleStyle.Render(c.Rationale))
		}
		b.WriteString("\n")
	}
	if len(s.Chosen) == 0 {
		b.WriteString("  " + SubtleStyle.Render("no selection") + "\n")
	}

	if s.Satisfaction != model.Satisfied && s.Report.Reason != "" {
		b.WriteString("  " + WarningStyle.Render(s.Report.Reason) + "\n")
	}
	if f.verbose && len(s.Feedback.Removals) > 0 {
		b.WriteString("  " + SubtleStyle.Render("removed: "+strings.Join(s.Feedback.Removals, ", ")) + "\n")
	}
	return b.String()
}

func displayName(c model.Candidate) string {
	if c.Parent == "" {
		return c.Name
	}
	return c.Name + " (" + c.Parent + ")"
}

// Runs writes a run history listing.
func (f *Formatter) Runs(runs []model.RunSummary) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(runViews(runs))
	case FormatYAML:
		return f.encodeYAML(runViews(runs))
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(f.w, FormatInfo("No runs recorded yet"))
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s%s%s\n",
		TableHeaderStyle.Render(fmt.Sprintf("%-8s", "ID")),
		TableHeaderStyle.Render(fmt.Sprintf("%-16s", "CREATED")),
		TableHeaderStyle.Render(fmt.Sprintf("%-11s", "STATUS")),
		TableHeaderStyle.Render(fmt.Sprintf("%-40s", "DESCRIPTION")),
		TableHeaderStyle.Render("LABELS"))
	for _, run := range runs {
		labels := strings.Join(run.Labels, ", ")
		if labels == "" {
			labels = "-"
		}
		fmt.Fprintf(&b, "%s%s%s%s%s\n",
			TableCellStyle.Render(fmt.Sprintf("%-8s", shortID(run.ID))),
			TableCellStyle.Render(run.CreatedAt.Local().Format("2006-01-02 15:04")),
			TableCellStyle.Render(fmt.Sprintf("%-11s", run.Status)),
			TableCellStyle.Render(fmt.Sprintf("%-40s", snippet(run.Description, 40))),
			labels)
	}
	_, err := io.WriteString(f.w, b.String())
	return err
}

type runView struct {
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	ID          string          `json:"id" yaml:"id"`
	College     string          `json:"college,omitempty" yaml:"college,omitempty"`
	Description string          `json:"description" yaml:"description"`
	Status      model.RunStatus `json:"status" yaml:"status"`
	Labels      []string        `json:"labels" yaml:"labels"`
	DurationMS  int64           `json:"duration_ms" yaml:"duration_ms"`
}

func runViews(runs []model.RunSummary) []runView {
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		labels := r.Labels
		if labels == nil {
			labels = []string{}
		}
		views = append(views, runView{
			CreatedAt:   r.CreatedAt,
			ID:          r.ID,
			College:     r.College,
			Description: r.Description,
			Status:      r.Status,
			Labels:      labels,
			DurationMS:  r.Duration.Milliseconds(),
		})
	}
	return views
}

// CheckReport writes the outcome of a taxonomy consistency check.
func (f *Formatter) CheckReport(report taxonomy.Report) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(report)
	case FormatYAML:
		return f.encodeYAML(report)
	}

	var b strings.Builder
	s := report.Stats
	fmt.Fprintf(&b, "%s\n", FormatTitle("Taxonomy check"))
	fmt.Fprintf(&b, "%d colleges, %d units, %d fields, %d subfields\n\n", s.Colleges, s.Units, s.Fields, s.Subfields)
	for _, issue := range report.Issues {
		line := issue.Path + ": " + issue.Message
		if issue.Severity == taxonomy.SeverityError {
			b.WriteString(FormatError(line) + "\n")
		} else {
			b.WriteString(FormatWarning(line) + "\n")
		}
	}
	if len(report.Issues) == 0 {
		b.WriteString(FormatSuccess("No issues found") + "\n")
	} else {
		fmt.Fprintf(&b, "\n%d errors, %d warnings\n",
			report.Count(taxonomy.SeverityError), report.Count(taxonomy.SeverityWarning))
	}
	_, err := io.WriteString(f.w, b.String())
	return err
}

// List writes plain names, one per line, or as a JSON/YAML array.
func (f *Formatter) List(names []string) error {
	if names == nil {
		names = []string{}
	}
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(names)
	case FormatYAML:
		return f.encodeYAML(names)
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(f.w, name); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (f *Formatter) encodeYAML(v any) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// snippet collapses whitespace and cuts s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
