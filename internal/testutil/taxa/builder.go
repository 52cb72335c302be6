package taxa

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/atlas/internal/taxonomy"
)

// DefaultCollege is the college entries go to until WithCollege is called.
const DefaultCollege = "College of Liberal Arts & Sciences"

// Builder provides a fluent interface for constructing test taxonomies.
type Builder interface {
	// WithCollege switches the college that later entries are added to.
	WithCollege(name string) Builder

	// WithUnit adds an empty unit to the current college.
	WithUnit(name string) Builder

	// WithField adds a field and its subfields under a unit, creating the unit if needed.
	WithField(unit, field string, subfields ...string) Builder

	// WithDescribedField adds a field with explicit descriptions.
	WithDescribedField(unit, field, description string, subfields map[string]string) Builder

	// WithFixture adds the entries of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build returns the assembled taxonomy.
	Build() *taxonomy.Taxonomy

	// BuildFile writes the taxonomy to a temporary JSON file and returns its path.
	BuildFile() string
}

type taxonomyBuilder struct {
	t       *testing.T
	tax     *taxonomy.Taxonomy
	college string
}

// NewBuilder creates a new taxonomy builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &taxonomyBuilder{
		t:       t,
		tax:     &taxonomy.Taxonomy{Colleges: make(map[string]taxonomy.College)},
		college: DefaultCollege,
	}
}

func (b *taxonomyBuilder) WithCollege(name string) Builder {
	b.college = name
	b.ensureCollege()
	return b
}

func (b *taxonomyBuilder) ensureCollege() taxonomy.College {
	college, ok := b.tax.Colleges[b.college]
	if !ok {
		college = taxonomy.College{Units: make(map[string]taxonomy.Unit)}
		b.tax.Colleges[b.college] = college
	}
	return college
}

func (b *taxonomyBuilder) ensureUnit(name string) taxonomy.Unit {
	college := b.ensureCollege()
	unit, ok := college.Units[name]
	if !ok {
		unit = taxonomy.Unit{
			Description: describe(name),
			Fields:      make(map[string]taxonomy.Field),
		}
		college.Units[name] = unit
	}
	return unit
}

func (b *taxonomyBuilder) WithUnit(name string) Builder {
	b.ensureUnit(name)
	return b
}

func (b *taxonomyBuilder) WithField(unit, field string, subfields ...string) Builder {
	described := make(map[string]string, len(subfields))
	for _, sub := range subfields {
		described[sub] = describe(sub)
	}
	return b.WithDescribedField(unit, field, describe(field), described)
}

func (b *taxonomyBuilder) WithDescribedField(unit, field, description string, subfields map[string]string) Builder {
	u := b.ensureUnit(unit)
	f, ok := u.Fields[field]
	if !ok {
		f = taxonomy.Field{Subfields: make(map[string]string)}
	}
	f.Description = description
	for name, desc := range subfields {
		f.Subfields[name] = desc
	}
	u.Fields[field] = f
	return b
}

func (b *taxonomyBuilder) WithFixture(fixture Fixture) Builder {
	current := b.college
	for _, entry := range fixture.Entries() {
		b.college = entry.College
		if b.college == "" {
			b.college = current
		}
		b.WithField(entry.Unit, entry.Field, entry.Subfields...)
	}
	b.college = current
	return b
}

func (b *taxonomyBuilder) Build() *taxonomy.Taxonomy {
	b.t.Helper()
	if len(b.tax.Colleges) == 0 {
		b.ensureCollege()
	}
	return b.tax
}

func (b *taxonomyBuilder) BuildFile() string {
	b.t.Helper()

	data, err := json.MarshalIndent(b.Build(), "", "  ")
	if err != nil {
		b.t.Fatalf("failed to encode taxonomy: %v", err)
	}

	path := filepath.Join(b.t.TempDir(), "taxonomy.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		b.t.Fatalf("failed to write taxonomy: %v", err)
	}
	return path
}

func describe(name string) string {
	return "Research on " + name
}
