package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\w\s\-\(\)&,\.]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
	slugUnsafe          = regexp.MustCompile(`[^\w\-]`)
)

// SanitizeFilename keeps letters, digits, spaces and ()&,.-_ and collapses whitespace.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "_")
	cleaned = strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

func slugify(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugUnsafe.ReplaceAllString(s, "")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "x"
	}
	return s
}

// Split writes one <field>.json per field into dir, each mapping subfield
// names to descriptions. A field that appears in several units with
// different subfields gets one file per variant, suffixed with the unit slug.
// It returns the written file paths.
func (t *Taxonomy) Split(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make(map[string]string) // filename -> content signature
	var paths []string

	for _, collegeName := range t.CollegeNames() {
		college := t.Colleges[collegeName]
		for _, unitName := range sortedKeys(college.Units) {
			unit := college.Units[unitName]
			for _, fieldName := range sortedKeys(unit.Fields) {
				data, err := json.MarshalIndent(unit.Fields[fieldName].Subfields, "", "  ")
				if err != nil {
					return paths, fmt.Errorf("failed to encode field %q: %w", fieldName, err)
				}
				signature := string(data)

				base := SanitizeFilename(fieldName)
				filename := base + ".json"
				if prev, ok := written[filename]; ok {
					if prev == signature {
						continue
					}
					filename = fmt.Sprintf("%s__%s.json", base, slugify(collegeName+" "+unitName))
				}
				written[filename] = signature

				path := filepath.Join(dir, filename)
				if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
					return paths, fmt.Errorf("failed to write %s: %w", path, err)
				}
				paths = append(paths, path)
			}
		}
	}

	return paths, nil
}
