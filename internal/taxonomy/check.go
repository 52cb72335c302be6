package taxonomy

import (
	"fmt"
	"sort"
	"strings"
)

// Severity grades a discrepancy.
type Severity string

// Severities.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one discrepancy found by Check.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Path, i.Message)
}

// Report collects the issues of a taxonomy check.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
	Stats  Stats   `json:"stats" yaml:"stats"`
}

// HasErrors reports whether any issue is an error.
func (r Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of issues with the given severity.
func (r Report) Count(severity Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == severity {
			n++
		}
	}
	return n
}

// Check looks for inconsistencies a hand-edited taxonomy tends to accumulate:
// missing descriptions, fields without subfields, and fields that appear in
// several units with different subfield sets.
func (t *Taxonomy) Check() Report {
	report := Report{Stats: t.Stats()}
	add := func(sev Severity, path, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	type occurrence struct {
		path      string
		signature string
	}
	fieldSeen := make(map[string][]occurrence)

	for _, collegeName := range t.CollegeNames() {
		college := t.Colleges[collegeName]
		for _, unitName := range sortedKeys(college.Units) {
			unit := college.Units[unitName]
			unitPath := collegeName + " / " + unitName

			if strings.TrimSpace(unit.Description) == "" {
				add(SeverityWarning, unitPath, "unit has no description")
			}
			if len(unit.Fields) == 0 {
				add(SeverityError, unitPath, "unit has no fields")
			}

			for _, fieldName := range sortedKeys(unit.Fields) {
				field := unit.Fields[fieldName]
				fieldPath := unitPath + " / " + fieldName

				if strings.TrimSpace(field.Description) == "" {
					add(SeverityWarning, fieldPath, "field has no description")
				}
				if len(field.Subfields) == 0 {
					add(SeverityError, fieldPath, "field has no subfields")
				}
				if fieldName != strings.TrimSpace(fieldName) {
					add(SeverityWarning, fieldPath, "field name has surrounding whitespace")
				}

				subfields := sortedKeys(field.Subfields)
				for _, sub := range subfields {
					if strings.TrimSpace(field.Subfields[sub]) == "" {
						add(SeverityWarning, fieldPath+" / "+sub, "subfield has no description")
					}
				}

				fieldSeen[fieldName] = append(fieldSeen[fieldName], occurrence{
					path:      unitPath,
					signature: strings.Join(subfields, "\x00"),
				})
			}
		}
	}

	names := make([]string, 0, len(fieldSeen))
	for name := range fieldSeen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		occ := fieldSeen[name]
		if len(occ) < 2 {
			continue
		}
		for _, o := range occ[1:] {
			if o.signature != occ[0].signature {
				add(SeverityWarning, name, "subfields differ between %q and %q", occ[0].path, o.path)
			}
		}
	}

	return report
}
