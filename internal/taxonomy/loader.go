package taxonomy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/atlas/internal/common"
)

// Load reads and validates a taxonomy document from disk.
func Load(path string) (*Taxonomy, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a taxonomy document.
func Parse(r io.Reader) (*Taxonomy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var t Taxonomy
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidSchema, describeDecodeError(err))
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after taxonomy document", common.ErrInvalidSchema)
	}

	if err := t.validateSchema(); err != nil {
		return nil, err
	}
	return &t, nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("syntax error at offset %d: %v", syntaxErr.Offset, syntaxErr)
	}
	return err.Error()
}

// validateSchema enforces the structural rules a decoder cannot express.
func (t *Taxonomy) validateSchema() error {
	if len(t.Colleges) == 0 {
		return fmt.Errorf("%w: no colleges defined", common.ErrInvalidSchema)
	}

	for _, collegeName := range t.CollegeNames() {
		path := fmt.Sprintf("colleges[%q]", collegeName)
		if strings.TrimSpace(collegeName) == "" {
			return fmt.Errorf("%w: %s: blank college name", common.ErrInvalidSchema, path)
		}

		college := t.Colleges[collegeName]
		if len(college.Units) == 0 {
			return fmt.Errorf("%w: %s: no units defined", common.ErrInvalidSchema, path)
		}

		for _, unitName := range sortedKeys(college.Units) {
			unitPath := fmt.Sprintf("%s.units[%q]", path, unitName)
			if strings.TrimSpace(unitName) == "" {
				return fmt.Errorf("%w: %s: blank unit name", common.ErrInvalidSchema, unitPath)
			}

			unit := college.Units[unitName]
			for _, fieldName := range sortedKeys(unit.Fields) {
				fieldPath := fmt.Sprintf("%s.fields[%q]", unitPath, fieldName)
				if strings.TrimSpace(fieldName) == "" {
					return fmt.Errorf("%w: %s: blank field name", common.ErrInvalidSchema, fieldPath)
				}
				for subfieldName := range unit.Fields[fieldName].Subfields {
					if strings.TrimSpace(subfieldName) == "" {
						return fmt.Errorf("%w: %s: blank subfield name", common.ErrInvalidSchema, fieldPath)
					}
				}
			}
		}
	}
	return nil
}
