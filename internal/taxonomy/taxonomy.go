// Package taxonomy loads the academic reference taxonomy and answers
// membership questions about it.
//
// The taxonomy is reference data: a college is made of units (departments),
// a unit lists fields, and a field lists subfields. Every level carries a
// short description that is shown to the model when it ranks candidates.
// Nothing in this package mutates a loaded taxonomy.
package taxonomy

import (
	"fmt"
	"sort"

	"github.com/Veraticus/atlas/internal/common"
)

// Taxonomy is the root of the reference document.
type Taxonomy struct {
	Colleges map[string]College `json:"colleges"`
}

// College groups the units of one college.
type College struct {
	Units map[string]Unit `json:"units"`
}

// Unit is a department and the fields it covers.
type Unit struct {
	Fields      map[string]Field `json:"fields"`
	Description string           `json:"description"`
}

// Field is an academic field and its subfields (name to description).
type Field struct {
	Subfields   map[string]string `json:"subfields"`
	Description string            `json:"description"`
}

// FieldRef locates a field inside the taxonomy.
type FieldRef struct {
	College string
	Unit    string
	Name    string
	Field   Field
}

// CollegeNames returns the college names in sorted order.
func (t *Taxonomy) CollegeNames() []string {
	return sortedKeys(t.Colleges)
}

// College returns the named college.
func (t *Taxonomy) College(name string) (College, error) {
	college, ok := t.Colleges[name]
	if !ok {
		return College{}, fmt.Errorf("%w: %q", common.ErrUnknownCollege, name)
	}
	return college, nil
}

// DefaultCollege returns the only college when the taxonomy has exactly one.
func (t *Taxonomy) DefaultCollege() (string, bool) {
	if len(t.Colleges) != 1 {
		return "", false
	}
	for name := range t.Colleges {
		return name, true
	}
	return "", false
}

// Units returns the unit names of a college in sorted order.
func (t *Taxonomy) Units(college string) ([]string, error) {
	c, err := t.College(college)
	if err != nil {
		return nil, err
	}
	return sortedKeys(c.Units), nil
}

// Fields returns the field names of the given units, or of every unit in the
// college when none are given.
func (t *Taxonomy) Fields(college string, units ...string) ([]string, error) {
	c, err := t.College(college)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		units = sortedKeys(c.Units)
	}

	seen := make(map[string]bool)
	var names []string
	for _, unitName := range units {
		unit, ok := c.Units[unitName]
		if !ok {
			return nil, fmt.Errorf("%w: unit %q in %q", common.ErrNotFound, unitName, college)
		}
		for _, field := range sortedKeys(unit.Fields) {
			if !seen[field] {
				seen[field] = true
				names = append(names, field)
			}
		}
	}
	return names, nil
}

// Subfields returns the subfield names of the given fields within a college,
// merged across every unit that lists each field.
func (t *Taxonomy) Subfields(college string, fields ...string) ([]string, error) {
	keys := make([]FieldKey, len(fields))
	for i, field := range fields {
		keys[i] = FieldKey{Field: field}
	}
	pool, err := t.SubfieldPool(college, keys)
	if err != nil {
		return nil, err
	}
	return pool.Names(), nil
}

// LookupField finds a field by name inside a college. The first unit in
// sorted order wins when several units list the same field; use FieldRefs to
// see all of them.
func (t *Taxonomy) LookupField(college, name string) (FieldRef, bool) {
	refs := t.FieldRefs(college, name)
	if len(refs) == 0 {
		return FieldRef{}, false
	}
	return refs[0], true
}

// FieldRefs returns every unit of the college that lists the field, in
// sorted unit order.
func (t *Taxonomy) FieldRefs(college, name string) []FieldRef {
	c, ok := t.Colleges[college]
	if !ok {
		return nil
	}
	var refs []FieldRef
	for _, unitName := range sortedKeys(c.Units) {
		if field, ok := c.Units[unitName].Fields[name]; ok {
			refs = append(refs, FieldRef{College: college, Unit: unitName, Name: name, Field: field})
		}
	}
	return refs
}

// HasUnit reports whether the college lists the unit.
func (t *Taxonomy) HasUnit(college, unit string) bool {
	c, ok := t.Colleges[college]
	if !ok {
		return false
	}
	_, ok = c.Units[unit]
	return ok
}

// HasField reports whether any unit of the college lists the field.
func (t *Taxonomy) HasField(college, field string) bool {
	_, ok := t.LookupField(college, field)
	return ok
}

// HasSubfield reports whether the field lists the subfield under any unit of
// the college.
func (t *Taxonomy) HasSubfield(college, field, subfield string) bool {
	for _, ref := range t.FieldRefs(college, field) {
		if _, ok := ref.Field.Subfields[subfield]; ok {
			return true
		}
	}
	return false
}

// FieldOf returns the first field of the college that lists the subfield.
func (t *Taxonomy) FieldOf(college, subfield string) (string, bool) {
	c, ok := t.Colleges[college]
	if !ok {
		return "", false
	}
	for _, unitName := range sortedKeys(c.Units) {
		unit := c.Units[unitName]
		for _, fieldName := range sortedKeys(unit.Fields) {
			if _, ok := unit.Fields[fieldName].Subfields[subfield]; ok {
				return fieldName, true
			}
		}
	}
	return "", false
}

// KnownField reports whether the field exists anywhere in the taxonomy.
func (t *Taxonomy) KnownField(name string) bool {
	for _, college := range t.Colleges {
		for _, unit := range college.Units {
			if _, ok := unit.Fields[name]; ok {
				return true
			}
		}
	}
	return false
}

// Stats counts the entries at each level.
type Stats struct {
	Colleges  int `json:"colleges" yaml:"colleges"`
	Units     int `json:"units" yaml:"units"`
	Fields    int `json:"fields" yaml:"fields"`
	Subfields int `json:"subfields" yaml:"subfields"`
}

// Stats returns entry counts across the whole taxonomy.
func (t *Taxonomy) Stats() Stats {
	var s Stats
	s.Colleges = len(t.Colleges)
	for _, college := range t.Colleges {
		s.Units += len(college.Units)
		for _, unit := range college.Units {
			s.Fields += len(unit.Fields)
			for _, field := range unit.Fields {
				s.Subfields += len(field.Subfields)
			}
		}
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
