// Package taxa provides a fluent builder for taxonomy test data.
//
// Tests that need reference data construct it in code instead of loading a
// JSON document from disk:
//
//	tax := taxa.NewBuilder(t).
//		WithFixture(taxa.FixtureStandard).
//		WithField("Physics", "Astrophysics", "Cosmology", "Stellar Evolution").
//		Build()
//
// Every builder starts on DefaultCollege. Call WithCollege to add entries to
// another college. Descriptions are generated from names unless given
// explicitly with WithDescribedField.
//
// BuildFile writes the taxonomy to a temporary JSON file for code paths that
// take a path, such as the CLI.
package taxa
