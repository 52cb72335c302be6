package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/atlas/internal/common"
)

const las = "College of Liberal Arts & Sciences"

func loadFixture(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := Load("testdata/las.json")
	require.NoError(t, err)
	return tax
}

func TestTaxonomy_Lookups(t *testing.T) {
	tax := loadFixture(t)

	assert.Equal(t, []string{las}, tax.CollegeNames())

	college, ok := tax.DefaultCollege()
	assert.True(t, ok)
	assert.Equal(t, las, college)

	units, err := tax.Units(las)
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science", "Mathematics", "Statistics"}, units)

	fields, err := tax.Fields(las, "Mathematics", "Statistics")
	require.NoError(t, err)
	assert.Equal(t, []string{"Applied Mathematics", "Probability", "Statistical Methodology"}, fields)

	subfields, err := tax.Subfields(las, "Probability")
	require.NoError(t, err)
	assert.Equal(t, []string{"Monte Carlo Methods", "Stochastic Processes", "Random Graphs"}, subfields)
}

func TestTaxonomy_UnknownCollege(t *testing.T) {
	tax := loadFixture(t)

	_, err := tax.Units("College of Engineering")
	require.ErrorIs(t, err, common.ErrUnknownCollege)

	_, err = tax.UnitPool("College of Engineering")
	require.ErrorIs(t, err, common.ErrUnknownCollege)
}

func TestTaxonomy_LookupFieldPrefersFirstUnit(t *testing.T) {
	tax := loadFixture(t)

	ref, ok := tax.LookupField(las, "Probability")
	require.True(t, ok)
	assert.Equal(t, "Mathematics", ref.Unit)
	assert.Contains(t, ref.Field.Subfields, "Stochastic Processes")

	_, ok = tax.LookupField(las, "Alchemy")
	assert.False(t, ok)

	refs := tax.FieldRefs(las, "Probability")
	require.Len(t, refs, 2)
	assert.Equal(t, "Mathematics", refs[0].Unit)
	assert.Equal(t, "Statistics", refs[1].Unit)
	assert.Empty(t, tax.FieldRefs("Nowhere", "Probability"))
}

func TestTaxonomy_Membership(t *testing.T) {
	tax := loadFixture(t)

	tests := []struct {
		name     string
		check    func() bool
		expected bool
	}{
		{"unit exists", func() bool { return tax.HasUnit(las, "Statistics") }, true},
		{"unit missing", func() bool { return tax.HasUnit(las, "Chemistry") }, false},
		{"unit in unknown college", func() bool { return tax.HasUnit("Nowhere", "Statistics") }, false},
		{"field exists", func() bool { return tax.HasField(las, "Bioinformatics") }, true},
		{"field missing", func() bool { return tax.HasField(las, "Astrology") }, false},
		{"subfield exists", func() bool { return tax.HasSubfield(las, "Applied Mathematics", "Dynamical Systems") }, true},
		{"subfield of other field", func() bool { return tax.HasSubfield(las, "Bioinformatics", "Dynamical Systems") }, false},
		{"subfield of shared field, first unit", func() bool { return tax.HasSubfield(las, "Probability", "Stochastic Processes") }, true},
		{"subfield of shared field, second unit", func() bool { return tax.HasSubfield(las, "Probability", "Random Graphs") }, true},
		{"known field", func() bool { return tax.KnownField("Statistical Methodology") }, true},
		{"unknown field", func() bool { return tax.KnownField("statistical methodology") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.check())
		})
	}
}

func TestTaxonomy_FieldOf(t *testing.T) {
	tax := loadFixture(t)

	field, ok := tax.FieldOf(las, "State Space Models")
	require.True(t, ok)
	assert.Equal(t, "Statistical Methodology", field)

	_, ok = tax.FieldOf(las, "Quantum Gravity")
	assert.False(t, ok)
}

func TestTaxonomy_Stats(t *testing.T) {
	tax := loadFixture(t)

	assert.Equal(t, Stats{Colleges: 1, Units: 3, Fields: 5, Subfields: 10}, tax.Stats())
}
