package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/atlas/internal/model"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		icon   string
	}{
		{name: "success", render: FormatSuccess, icon: SuccessIcon},
		{name: "error", render: FormatError, icon: ErrorIcon},
		{name: "warning", render: FormatWarning, icon: WarningIcon},
		{name: "info", render: FormatInfo, icon: InfoIcon},
		{name: "title", render: FormatTitle, icon: AtlasIcon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("hello")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "hello")
		})
	}
}

func TestFormatValid(t *testing.T) {
	assert.Contains(t, FormatValid(true), "valid")
	assert.Contains(t, FormatValid(false), "invalid")
}

func TestFormatStatus(t *testing.T) {
	for _, status := range []model.RunStatus{model.RunComplete, model.RunUnsatisfied, model.RunFailed} {
		assert.Contains(t, FormatStatus(status), string(status))
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score  float64
		filled int
		value  string
	}{
		{score: 1, filled: 10, value: "1.00"},
		{score: 0.84, filled: 8, value: "0.84"},
		{score: 0.06, filled: 1, value: "0.06"},
		{score: -2, filled: 0, value: "0.00"},
		{score: 3, filled: 10, value: "1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			out := FormatScore(tt.score)
			assert.Equal(t, tt.filled, strings.Count(out, "█"))
			assert.Equal(t, 10-tt.filled, strings.Count(out, "░"))
			assert.True(t, strings.HasSuffix(out, tt.value), out)
		})
	}
}
