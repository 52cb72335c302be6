package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/testutil"
	"github.com/Veraticus/atlas/internal/testutil/taxa"
)

// seedHistory stores runs in the configured database.
func seedHistory(t *testing.T, results ...*model.Result) {
	t.Helper()
	ctx := context.Background()
	store, err := initStorage(ctx)
	require.NoError(t, err)
	defer closeStorage(store)
	for _, r := range results {
		require.NoError(t, store.SaveRun(ctx, r))
	}
}

func TestHistoryCmd_List(t *testing.T) {
	setupConfig(t, taxa.FixtureStandard)

	now := time.Now()
	old := testutil.At(testutil.NewResult("Older run", testutil.Label("Probability", "Monte Carlo Methods")), now.Add(-48*time.Hour))
	old.Request.ID = "aaaa-old"
	recent := testutil.At(testutil.NewResult("Recent run", testutil.Label("Statistical Methodology", "Bayesian Statistics")), now.Add(-time.Hour))
	recent.Request.ID = "bbbb-recent"
	failed := testutil.At(testutil.WithStatus(testutil.NewResult("Failed run"), model.RunFailed), now)
	failed.Request.ID = "cccc-failed"
	seedHistory(t, old, recent, failed)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "all", want: []string{"cccc-failed", "bbbb-recent", "aaaa-old"}},
		{name: "limit", args: []string{"--limit", "1"}, want: []string{"cccc-failed"}},
		{name: "offset", args: []string{"--limit", "1", "--offset", "1"}, want: []string{"bbbb-recent"}},
		{name: "offset without limit", args: []string{"--limit", "0", "--offset", "1"}, want: []string{"bbbb-recent", "aaaa-old"}},
		{name: "status", args: []string{"--status", "failed"}, want: []string{"cccc-failed"}},
		{name: "field", args: []string{"--field", "Probability"}, want: []string{"aaaa-old"}},
		{name: "since", args: []string{"--since", "24h"}, want: []string{"cccc-failed", "bbbb-recent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, listRunsCmd(), append([]string{"--format", "json"}, tt.args...)...)
			require.NoError(t, err)

			var runs []struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &runs))
			ids := make([]string, 0, len(runs))
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHistoryCmd_ListEmpty(t *testing.T) {
	setupConfig(t, taxa.FixtureMinimal)

	out, err := execute(t, listRunsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

func TestHistoryCmd_InvalidSince(t *testing.T) {
	setupConfig(t, taxa.FixtureMinimal)

	_, err := execute(t, listRunsCmd(), "--since", "last tuesday")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("36h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-36*time.Hour), got)

	got, err = parseSince("2024-01-31", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local), got)
}

func TestHistoryCmd_ShowAndDelete(t *testing.T) {
	setupConfig(t, taxa.FixtureStandard)

	run := testutil.NewResult("Bayesian methods", testutil.Label("Statistical Methodology", "Bayesian Statistics"))
	run.Request.ID = "0123456789abcdef"
	seedHistory(t, run)

	out, err := execute(t, showRunCmd(), "--format", "json", "01234567")
	require.NoError(t, err)
	view := decodeView(t, out)
	assert.Equal(t, run.Request.ID, view.ID)
	assert.Equal(t, []model.Label{{Field: "Statistical Methodology", Subfield: "Bayesian Statistics"}}, view.Labels)

	out, err = execute(t, deleteRunCmd(), run.Request.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run "+run.Request.ID)

	_, err = execute(t, showRunCmd(), run.Request.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolveRunID_Ambiguous(t *testing.T) {
	setupConfig(t, taxa.FixtureMinimal)

	first := testutil.NewResult("First")
	first.Request.ID = "abc-1"
	second := testutil.NewResult("Second")
	second.Request.ID = "abc-2"
	seedHistory(t, first, second)

	_, err := execute(t, showRunCmd(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}
