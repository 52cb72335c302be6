package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/engine"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/taxonomy"
	"github.com/Veraticus/atlas/internal/testutil"
	"github.com/Veraticus/atlas/internal/testutil/taxa"
)

// classifyWithMock runs the pipeline against canned model replies.
func classifyWithMock(t *testing.T) *model.Result {
	t.Helper()
	tax := taxa.NewBuilder(t).WithFixture(taxa.FixtureStandard).Build()
	mock := engine.NewMockLLM(
		`{"choices": [{"name": "Statistics", "score": 0.92, "rationale": "inference"}]}`,
		`{"is_valid": true}`,
		`{"choices": [{"name": "Statistical Methodology", "score": 0.88}]}`,
		`{"is_valid": true}`,
		`{"choices": [{"name": "State Space Models", "score": 0.9, "rationale": "latent dynamics"}]}`,
		`{"is_valid": true}`,
	)
	p := engine.New(tax, mock, engine.DefaultConfig(), nil)
	result, err := p.Run(context.Background(), model.Request{
		ID:          "test-1",
		Description: "State space models and dynamic systems",
	})
	require.NoError(t, err)
	return result
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "TEXT", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatter_TextReproducesLabel(t *testing.T) {
	result := classifyWithMock(t)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).Result(result))
	out := buf.String()

	assert.Contains(t, out, "Statistical Methodology::State Space Models")
	assert.Contains(t, out, "Statistics")
	assert.Contains(t, out, "State Space Models (Statistical Methodology)")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "mock/keyword-overlap")
	assert.NotContains(t, out, "latent dynamics", "rationales are verbose only")

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatText, true).Result(result))
	assert.Contains(t, buf.String(), "latent dynamics")
}

func TestFormatter_JSONReproducesLabel(t *testing.T) {
	result := classifyWithMock(t)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatJSON, false).Result(result))

	var view ResultView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))

	want := []model.Label{{Field: "Statistical Methodology", Subfield: "State Space Models"}}
	if diff := cmp.Diff(want, view.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "test-1", view.ID)
	assert.Equal(t, model.RunComplete, view.Status)
	assert.Equal(t, taxa.DefaultCollege, view.College)
	assert.Empty(t, view.Stages)

	assert.Contains(t, buf.String(), `"field": "Statistical Methodology"`)
	assert.Contains(t, buf.String(), `"subfield": "State Space Models"`)
}

func TestFormatter_YAMLReproducesLabel(t *testing.T) {
	result := classifyWithMock(t)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatYAML, true).Result(result))

	var view ResultView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &view))
	require.Len(t, view.Labels, 1)
	assert.Equal(t, "Statistical Methodology", view.Labels[0].Field)
	assert.Equal(t, "State Space Models", view.Labels[0].Subfield)
	assert.Len(t, view.Stages, 3)
	assert.NotEmpty(t, view.Trace)
}

func TestFormatter_UnsatisfiedAndFailed(t *testing.T) {
	unsatisfied := &model.Result{
		Request: model.Request{ID: "u", Description: "Something"},
		Status:  model.RunUnsatisfied,
		Stages: []model.StageResult{{
			Stage:        model.StageUnit,
			Satisfaction: model.Unsatisfied,
			Attempts:     3,
			Report:       model.ValidationReport{Reason: "nothing fits"},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).Result(unsatisfied))
	out := buf.String()
	assert.Contains(t, out, "unsatisfied")
	assert.Contains(t, out, "3 attempts")
	assert.Contains(t, out, "nothing fits")
	assert.Contains(t, out, "no selection")
	assert.Contains(t, out, "none")

	failed := &model.Result{
		Request: model.Request{ID: "f", Description: "Something"},
		Status:  model.RunFailed,
		Error:   "unit classification failed: rate limit exceeded",
	}
	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatJSON, false).Result(failed))
	var view ResultView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, model.RunFailed, view.Status)
	assert.Equal(t, failed.Error, view.Error)
	assert.NotNil(t, view.Labels)
	assert.Contains(t, buf.String(), `"labels": []`)
}

func TestFormatter_NewFields(t *testing.T) {
	result := testutil.NewResult("Causal effects", testutil.Label("Statistical Methodology", "Bayesian Statistics"))
	result.NewFields = model.Candidates{{Name: "Causal Inference", Rationale: "not listed"}}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).Result(result))
	assert.Contains(t, buf.String(), "Suggested new fields")
	assert.Contains(t, buf.String(), "Causal Inference")
}

func TestFormatter_Results(t *testing.T) {
	results := []*model.Result{
		testutil.NewResult("a", testutil.Label("Probability", "Monte Carlo Methods")),
		nil,
		testutil.NewResult("b", testutil.Label("Applied Mathematics", "Dynamical Systems")),
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatJSON, false).Results(results))
	var views []ResultView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Probability::Monte Carlo Methods", views[0].Labels[0].String())

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatText, false).Results(results))
	assert.Equal(t, 2, strings.Count(buf.String(), "Research classification"))
}

func TestFormatter_Runs(t *testing.T) {
	runs := []model.RunSummary{
		{
			CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ID:          "0123456789abcdef",
			Description: "Monte Carlo theory and methodology, and their applications to scientific problems",
			Status:      model.RunComplete,
			Labels:      []string{"Probability::Monte Carlo Methods"},
			Duration:    1200 * time.Millisecond,
		},
		{ID: "short", Description: "x", Status: model.RunFailed},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).Runs(runs))
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "Probability::Monte Carlo Methods")
	assert.Contains(t, out, "…")

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatJSON, false).Runs(runs))
	assert.Contains(t, buf.String(), `"duration_ms": 1200`)
	assert.Contains(t, buf.String(), `"labels": []`)

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatText, false).Runs(nil))
	assert.Contains(t, buf.String(), "No runs recorded yet")
}

func TestFormatter_CheckReport(t *testing.T) {
	report := taxonomy.Report{
		Stats: taxonomy.Stats{Colleges: 1, Units: 2, Fields: 3, Subfields: 4},
		Issues: []taxonomy.Issue{
			{Severity: taxonomy.SeverityError, Path: "C / U", Message: "unit has no fields"},
			{Severity: taxonomy.SeverityWarning, Path: "C / V", Message: "unit has no description"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).CheckReport(report))
	assert.Contains(t, buf.String(), "1 colleges, 2 units, 3 fields, 4 subfields")
	assert.Contains(t, buf.String(), "C / U: unit has no fields")
	assert.Contains(t, buf.String(), "1 errors, 1 warnings")

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatYAML, false).CheckReport(report))
	assert.Contains(t, buf.String(), "severity: error")

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatText, false).CheckReport(taxonomy.Report{}))
	assert.Contains(t, buf.String(), "No issues found")
}

func TestFormatter_List(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatText, false).List([]string{"a", "b"}))
	assert.Equal(t, "a\nb\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(&buf, FormatJSON, false).List(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("  a \n b ", 10))
	assert.Equal(t, "abcd…", snippet("abcdefgh", 5))
}
