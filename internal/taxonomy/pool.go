package taxonomy

import (
	"fmt"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/model"
)

// Entry is one candidate of a pool.
type Entry struct {
	Name        string
	Description string
	Parent      string
}

// Pool is the ordered set of candidates offered to the model at one stage.
type Pool struct {
	index   map[string]int
	Stage   model.Stage
	entries []Entry
}

// NewPool builds a pool from entries. Later duplicates are ignored.
func NewPool(stage model.Stage, entries ...Entry) *Pool {
	p := &Pool{
		Stage: stage,
		index: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		p.add(e)
	}
	return p
}

func (p *Pool) add(e Entry) {
	if _, exists := p.index[e.Name]; exists {
		return
	}
	p.index[e.Name] = len(p.entries)
	p.entries = append(p.entries, e)
}

// Len returns the number of candidates.
func (p *Pool) Len() int { return len(p.entries) }

// Entries returns a copy of the pool entries in order.
func (p *Pool) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Names returns the candidate names in order.
func (p *Pool) Names() []string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.Name
	}
	return names
}

// Contains reports whether the name is a member of the pool.
func (p *Pool) Contains(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Get returns the entry for a name.
func (p *Pool) Get(name string) (Entry, bool) {
	i, ok := p.index[name]
	if !ok {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Description returns the description of a member, or "".
func (p *Pool) Description(name string) string {
	e, _ := p.Get(name)
	return e.Description
}

// Parent returns the owning unit or field of a member, or "".
func (p *Pool) Parent(name string) string {
	e, _ := p.Get(name)
	return e.Parent
}

// Apply returns a new pool with the feedback removals dropped and the
// additions appended without a description. The receiver is unchanged.
func (p *Pool) Apply(fb model.Feedback) *Pool {
	removed := make(map[string]bool, len(fb.Removals))
	for _, r := range fb.Removals {
		removed[r] = true
	}

	next := NewPool(p.Stage)
	for _, e := range p.entries {
		if !removed[e.Name] {
			next.add(e)
		}
	}
	for _, a := range fb.Additions {
		if a != "" && !removed[a] {
			next.add(Entry{Name: a})
		}
	}
	return next
}

// UnitPool returns the units of a college.
func (t *Taxonomy) UnitPool(college string) (*Pool, error) {
	c, err := t.College(college)
	if err != nil {
		return nil, err
	}

	pool := NewPool(model.StageUnit)
	for _, name := range sortedKeys(c.Units) {
		pool.add(Entry{Name: name, Description: c.Units[name].Description, Parent: college})
	}
	if pool.Len() == 0 {
		return nil, fmt.Errorf("%w: college %q has no units", common.ErrEmptyPool, college)
	}
	return pool, nil
}

// FieldPool returns the fields of the given units. A field listed by several
// units keeps the first unit as its parent.
func (t *Taxonomy) FieldPool(college string, units []string) (*Pool, error) {
	c, err := t.College(college)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: field pool requires at least one unit", common.ErrEmptyPool)
	}

	pool := NewPool(model.StageField)
	for _, unitName := range units {
		unit, ok := c.Units[unitName]
		if !ok {
			return nil, fmt.Errorf("%w: unit %q in %q", common.ErrNotFound, unitName, college)
		}
		for _, name := range sortedKeys(unit.Fields) {
			pool.add(Entry{Name: name, Description: unit.Fields[name].Description, Parent: unitName})
		}
	}
	if pool.Len() == 0 {
		return nil, fmt.Errorf("%w: no fields found for units %v", common.ErrEmptyPool, units)
	}
	return pool, nil
}

// FieldKey names a field as listed by one unit. An empty Unit stands for
// every unit of the college that lists the field.
type FieldKey struct {
	Unit  string
	Field string
}

// FieldKeys pairs chosen fields with the unit each was offered under.
func FieldKeys(fields model.Candidates) []FieldKey {
	keys := make([]FieldKey, len(fields))
	for i, f := range fields {
		keys[i] = FieldKey{Unit: f.Parent, Field: f.Name}
	}
	return keys
}

// SubfieldPool returns the subfields of the given fields within a college.
func (t *Taxonomy) SubfieldPool(college string, fields []FieldKey) (*Pool, error) {
	if _, err := t.College(college); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: subfield pool requires at least one field", common.ErrEmptyPool)
	}

	pool := NewPool(model.StageSubfield)
	for _, key := range fields {
		refs := t.FieldRefs(college, key.Field)
		found := false
		for _, ref := range refs {
			if key.Unit != "" && ref.Unit != key.Unit {
				continue
			}
			found = true
			for _, name := range sortedKeys(ref.Field.Subfields) {
				pool.add(Entry{Name: name, Description: ref.Field.Subfields[name], Parent: key.Field})
			}
		}
		if !found {
			if key.Unit != "" {
				return nil, fmt.Errorf("%w: field %q in unit %q", common.ErrNotFound, key.Field, key.Unit)
			}
			return nil, fmt.Errorf("%w: field %q in %q", common.ErrNotFound, key.Field, college)
		}
	}
	if pool.Len() == 0 {
		return nil, fmt.Errorf("%w: no subfields found for fields %v", common.ErrEmptyPool, fields)
	}
	return pool, nil
}
