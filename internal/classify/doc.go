// Package classify implements the LLM stages of the pipeline: ranking
// candidates from a taxonomy pool, validating the chosen labels, and
// proposing fields the taxonomy does not yet list.
//
// Every stage sends a single JSON-mode prompt. A reply that cannot be parsed
// is an invalid stage output, not an error; errors are reserved for
// transport and API failures so the caller can tell the two apart.
package classify
