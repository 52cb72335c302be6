package taxa

// Entry is one field of a fixture. An empty College means the builder's
// current college.
type Entry struct {
	College   string
	Unit      string
	Field     string
	Subfields []string
}

// Fixture represents a predefined taxonomy for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Description returns a detailed description of the fixture's purpose.
	Description() string

	// Entries returns the fields included in this fixture.
	Entries() []Entry

	// Version returns the fixture version for evolution support.
	Version() int
}

type fixture struct {
	name        string
	description string
	entries     []Entry
	version     int
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Description() string { return f.description }
func (f *fixture) Entries() []Entry    { return f.entries }
func (f *fixture) Version() int        { return f.version }

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal is a single unit with a single field.
	FixtureMinimal = &fixture{
		name:        "Minimal",
		description: "One unit, one field, two subfields",
		version:     1,
		entries: []Entry{
			{Unit: "Mathematics", Field: "Probability", Subfields: []string{"Monte Carlo Methods", "Stochastic Processes"}},
		},
	}

	// FixtureStandard covers the quantitative units used by most pipeline tests.
	FixtureStandard = &fixture{
		name:        "Standard",
		description: "Mathematics, Statistics and Computer Science with a shared Probability field",
		version:     1,
		entries: []Entry{
			{Unit: "Mathematics", Field: "Probability", Subfields: []string{"Monte Carlo Methods", "Stochastic Processes"}},
			{Unit: "Mathematics", Field: "Applied Mathematics", Subfields: []string{"Dynamical Systems", "Mathematical Biology"}},
			{Unit: "Statistics", Field: "Statistical Methodology", Subfields: []string{"Bayesian Statistics", "State Space Models"}},
			{Unit: "Statistics", Field: "Probability", Subfields: []string{"Monte Carlo Methods", "Random Graphs"}},
			{Unit: "Computer Science", Field: "Machine Learning", Subfields: []string{"Deep Learning", "Reinforcement Learning"}},
			{Unit: "Computer Science", Field: "Bioinformatics", Subfields: []string{"Sequence Analysis", "Systems Biology"}},
		},
	}

	// FixtureMultiCollege spreads fields over two colleges so a request must name one.
	FixtureMultiCollege = &fixture{
		name:        "MultiCollege",
		description: "Two colleges with one unit each",
		version:     1,
		entries: []Entry{
			{College: DefaultCollege, Unit: "History", Field: "Medieval History", Subfields: []string{"Crusades", "Byzantine Studies"}},
			{College: "College of Engineering", Unit: "Electrical Engineering", Field: "Signal Processing", Subfields: []string{"Filter Design", "Compressed Sensing"}},
		},
	}
)
