package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/atlas/internal/model"
)

// Every entry of the taxonomy must be accepted at its own stage.
func TestContains_AcceptsEveryEntry(t *testing.T) {
	for _, path := range []string{"testdata/las.json", "../../data/las_taxonomy.json"} {
		t.Run(path, func(t *testing.T) {
			tax, err := Load(path)
			require.NoError(t, err)

			for collegeName, college := range tax.Colleges {
				for unitName, unit := range college.Units {
					assert.True(t, tax.Contains(model.StageUnit, collegeName, unitName), unitName)
					for fieldName, field := range unit.Fields {
						assert.True(t, tax.Contains(model.StageField, collegeName, fieldName), fieldName)
						for subName := range field.Subfields {
							assert.True(t, tax.Contains(model.StageSubfield, collegeName, subName), subName)
						}
					}
				}
			}
		})
	}
}

func TestContains_RejectsNonMembers(t *testing.T) {
	tax := loadFixture(t)

	tests := []struct {
		stage model.Stage
		name  string
	}{
		{model.StageUnit, "Chemistry"},
		{model.StageUnit, "statistics"},
		{model.StageUnit, "Probability"},
		{model.StageField, "Statistics"},
		{model.StageField, "Probabilty"},
		{model.StageField, ""},
		{model.StageSubfield, "Probability"},
		{model.StageSubfield, "Monte Carlo"},
		{model.StageEnhance, "Probability"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage)+"/"+tt.name, func(t *testing.T) {
			assert.False(t, tax.Contains(tt.stage, las, tt.name))
		})
	}
}

func TestValidateMembership(t *testing.T) {
	tax := loadFixture(t)
	pool, err := tax.FieldPool(las, []string{"Mathematics", "Statistics"})
	require.NoError(t, err)

	t.Run("all members", func(t *testing.T) {
		report := ValidateMembership(pool, []string{"Probability", "Applied Mathematics"})
		assert.True(t, report.Valid)
		assert.Equal(t, model.Satisfied, report.Satisfaction())
		assert.Empty(t, report.Removals)
	})

	t.Run("non member is removed with suggestions", func(t *testing.T) {
		report := ValidateMembership(pool, []string{"Probability", "Probabilty Theory"})
		assert.False(t, report.Valid)
		assert.Equal(t, []string{"Probabilty Theory"}, report.Removals)
		require.NotEmpty(t, report.Suggestions)
		assert.LessOrEqual(t, len(report.Suggestions), maxSuggestions)
		assert.Equal(t, "Probability", report.Suggestions[0])
		assert.Contains(t, report.Reason, "Probabilty Theory")
	})

	t.Run("nothing chosen", func(t *testing.T) {
		report := ValidateMembership(pool, nil)
		assert.False(t, report.Valid)
		assert.Equal(t, "no field labels were chosen", report.Reason)
	})
}

func TestNearest(t *testing.T) {
	pool := []string{"Algebra", "Analysis", "Number Theory", "Geometry and Topology"}

	assert.Equal(t, []string{"Analysis"}, Nearest("analysys", pool, 1))
	assert.Len(t, Nearest("x", pool, 10), len(pool))
	assert.Nil(t, Nearest("x", pool, 0))
	assert.Nil(t, Nearest("x", nil, 3))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein([]rune(tt.a), []rune(tt.b)), "%s/%s", tt.a, tt.b)
	}
}
