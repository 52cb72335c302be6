package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/atlas/internal/cli"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect the taxonomy",
		Long:  `List colleges, units, fields, and subfields, check the taxonomy file for problems, or split it into per-field files.`,
	}

	cmd.AddCommand(listCollegesCmd())
	cmd.AddCommand(listUnitsCmd())
	cmd.AddCommand(listFieldsCmd())
	cmd.AddCommand(listSubfieldsCmd())
	cmd.AddCommand(validateLabelsCmd())
	cmd.AddCommand(checkTaxonomyCmd())
	cmd.AddCommand(splitTaxonomyCmd())

	return cmd
}

// collegeFlag returns --college, falling back to taxonomy.college and then to
// the only college of a single-college taxonomy.
func collegeFlag(cmd *cobra.Command, tax *taxonomy.Taxonomy) (string, error) {
	college, _ := cmd.Flags().GetString("college")
	if college == "" {
		college = viper.GetString("taxonomy.college")
	}
	if college != "" {
		return college, nil
	}
	if name, ok := tax.DefaultCollege(); ok {
		return name, nil
	}
	return "", fmt.Errorf("the taxonomy lists several colleges, pick one with --college (%s)",
		strings.Join(tax.CollegeNames(), ", "))
}

func listCollegesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colleges",
		Short: "List colleges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return formatter.List(tax.CollegeNames())
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func listUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "List the units of a college",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			college, err := collegeFlag(cmd, tax)
			if err != nil {
				return err
			}
			units, err := tax.Units(college)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return formatter.List(units)
		},
	}
	cmd.Flags().StringP("college", "c", "", "college to list")
	addOutputFlags(cmd)
	return cmd
}

func listFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields [unit...]",
		Short: "List fields of a college, optionally limited to some units",
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			college, err := collegeFlag(cmd, tax)
			if err != nil {
				return err
			}
			fields, err := tax.Fields(college, args...)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return formatter.List(fields)
		},
	}
	cmd.Flags().StringP("college", "c", "", "college to list")
	addOutputFlags(cmd)
	return cmd
}

func listSubfieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subfields <field...>",
		Short: "List the subfields of one or more fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			college, err := collegeFlag(cmd, tax)
			if err != nil {
				return err
			}
			subfields, err := tax.Subfields(college, args...)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return formatter.List(subfields)
		},
	}
	cmd.Flags().StringP("college", "c", "", "college to list")
	addOutputFlags(cmd)
	return cmd
}

func validateLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <label...>",
		Short: "Check that labels exist in the taxonomy",
		Long: `Check each label against the taxonomy. A label is a field name or a
Field::Subfield pair. Unknown labels are reported with the closest matches.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			college, err := collegeFlag(cmd, tax)
			if err != nil {
				return err
			}
			fields, err := tax.Fields(college)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, label := range args {
				field, subfield, hasSub := strings.Cut(label, "::")
				field, subfield = strings.TrimSpace(field), strings.TrimSpace(subfield)

				var valid bool
				var suggestions []string
				if hasSub {
					valid = tax.HasSubfield(college, field, subfield)
					if !valid {
						if subs, subErr := tax.Subfields(college, field); subErr == nil {
							suggestions = taxonomy.Nearest(subfield, subs, 3)
						} else {
							suggestions = taxonomy.Nearest(field, fields, 3)
						}
					}
				} else {
					valid = tax.HasField(college, field)
					if !valid {
						suggestions = taxonomy.Nearest(field, fields, 3)
					}
				}

				line := fmt.Sprintf("%s %s", cli.FormatValid(valid), label)
				if len(suggestions) > 0 {
					line += cli.SubtleStyle.Render("  (did you mean: " + strings.Join(suggestions, ", ") + ")")
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
				if !valid {
					invalid++
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d labels are not in the taxonomy", invalid, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringP("college", "c", "", "college to check against")
	return cmd
}

func checkTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report schema problems and inconsistencies in the taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}

			report := tax.Check()
			if err := formatter.CheckReport(report); err != nil {
				return err
			}
			if report.HasErrors() {
				return fmt.Errorf("taxonomy has %d errors", report.Count(taxonomy.SeverityError))
			}
			return nil
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func splitTaxonomyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <dir>",
		Short: "Write one JSON file of subfields per field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := loadTaxonomy()
			if err != nil {
				return err
			}

			paths, err := tax.Split(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("Wrote %d field files to %s", len(paths), args[0])))
			return err
		},
	}
}
