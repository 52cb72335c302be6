package classify

import (
	"fmt"
	"strings"

	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

// maxPromptCandidates caps how many pool entries are listed in one prompt.
const maxPromptCandidates = 80

const systemPrompt = "You are an academic research classifier. " +
	"You MUST respond with ONLY a valid JSON object. " +
	"Do not include explanatory text, markdown formatting, or commentary before or after the JSON."

var stageNouns = map[model.Stage]string{
	model.StageUnit:     "academic unit (department)",
	model.StageField:    "academic field",
	model.StageSubfield: "academic subfield",
	model.StageEnhance:  "academic field",
}

func stageNoun(stage model.Stage) string {
	if noun, ok := stageNouns[stage]; ok {
		return noun
	}
	return string(stage)
}

// writeCandidates lists pool entries as "- Name: description".
func writeCandidates(b *strings.Builder, pool *taxonomy.Pool) {
	entries := pool.Entries()
	if len(entries) > maxPromptCandidates {
		entries = entries[:maxPromptCandidates]
	}
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.Name)
		if e.Description != "" {
			b.WriteString(": ")
			b.WriteString(e.Description)
		}
		b.WriteString("\n")
	}
}

func writeDescription(b *strings.Builder, req model.Request) {
	b.WriteString("Research description:\n")
	b.WriteString(strings.TrimSpace(req.Description))
	b.WriteString("\n\n")
	if req.College != "" {
		fmt.Fprintf(b, "College: %s\n\n", req.College)
	}
}

func buildClassifyPrompt(req model.Request, pool *taxonomy.Pool, maxChoices int) string {
	noun := stageNoun(pool.Stage)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an %s classifier.\n", noun)
	fmt.Fprintf(&b, "Given a research description and a list of candidates, return up to %d candidates that best fit the research, best first.\n", maxChoices)
	b.WriteString("Strictly return a JSON object of the following structure:\n\n")
	b.WriteString(`{"choices": [{"name": "<candidate name>", "score": <0.0-1.0>, "rationale": "<why it fits>"}]}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString(" - Each 'name' MUST be one of the provided candidates, copied verbatim.\n")
	b.WriteString(" - 'score' is your confidence that the candidate fits.\n")
	b.WriteString(" - Output ONLY valid JSON. No prose, no markdown, no comments.\n\n")
	writeDescription(&b, req)
	b.WriteString("Candidates:\n")
	writeCandidates(&b, pool)
	return b.String()
}

func buildValidatePrompt(req model.Request, pool *taxonomy.Pool, chosen model.Candidates) string {
	noun := stageNoun(pool.Stage)

	var b strings.Builder
	fmt.Fprintf(&b, "You are validating whether the selected %s labels match a research description.\n", noun)
	b.WriteString("Return strictly JSON with keys: is_valid (bool), reason (string), removals (string array).\n")
	b.WriteString("List in 'removals' the selected labels that do not fit the research. Leave it empty when all of them fit.\n\n")
	writeDescription(&b, req)
	b.WriteString("Selected labels:\n")
	for _, c := range chosen {
		fmt.Fprintf(&b, "- %s", c.Name)
		if desc := pool.Description(c.Name); desc != "" {
			fmt.Fprintf(&b, ": %s", desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nFull candidate list for reference:\n")
	writeCandidates(&b, pool)
	b.WriteString("\nOutput ONLY valid JSON. No prose, no markdown.\n")
	return b.String()
}

func buildEnhancePrompt(req model.Request, pool *taxonomy.Pool) string {
	var b strings.Builder
	b.WriteString("You are an academic classifier.\n")
	b.WriteString("Given a research description and a list of candidate fields, propose additional fields that are NOT in the candidate set but would classify the description better.\n")
	b.WriteString("If the candidate fields already classify the description sufficiently, return {\"choices\": null}.\n\n")
	b.WriteString("Strictly return a JSON object of the following structure:\n\n")
	b.WriteString(`{"choices": [{"name": "<new field name>", "rationale": "<why it is needed>"}] | null}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString(" - Each proposed 'name' MUST NOT be one of the candidate fields.\n")
	b.WriteString(" - Output ONLY valid JSON. No prose, no markdown, no comments.\n\n")
	writeDescription(&b, req)
	b.WriteString("Candidate fields:\n")
	writeCandidates(&b, pool)
	return b.String()
}
