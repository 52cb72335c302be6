package taxonomy

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/atlas/internal/model"
)

// maxSuggestions caps how many nearest names accompany a rejection.
const maxSuggestions = 3

// Contains reports whether a label is a member of the taxonomy at the given
// stage. Subfields are checked across every field of the college.
func (t *Taxonomy) Contains(stage model.Stage, college, name string) bool {
	switch stage {
	case model.StageUnit:
		return t.HasUnit(college, name)
	case model.StageField:
		return t.HasField(college, name)
	case model.StageSubfield:
		_, ok := t.FieldOf(college, name)
		return ok
	default:
		return false
	}
}

// ValidateMembership checks that every name is in the pool. Rejections carry
// the nearest pool names as suggestions.
func ValidateMembership(pool *Pool, names []string) model.ValidationReport {
	if len(names) == 0 {
		return model.ValidationReport{
			Valid:  false,
			Reason: fmt.Sprintf("no %s labels were chosen", pool.Stage),
		}
	}

	var missing []string
	for _, name := range names {
		if !pool.Contains(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return model.ValidationReport{
			Valid:  true,
			Reason: fmt.Sprintf("all %s labels exist in the taxonomy", pool.Stage),
		}
	}

	var suggestions []string
	for _, m := range missing {
		for _, s := range Nearest(m, pool.Names(), maxSuggestions) {
			if !contains(suggestions, s) {
				suggestions = append(suggestions, s)
			}
		}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return model.ValidationReport{
		Valid:       false,
		Reason:      fmt.Sprintf("%s not found in taxonomy: %s", pool.Stage, strings.Join(missing, ", ")),
		Removals:    missing,
		Suggestions: suggestions,
	}
}

// Nearest returns up to n names from pool ranked by similarity to target.
func Nearest(target string, pool []string, n int) []string {
	if n <= 0 || len(pool) == 0 {
		return nil
	}

	type scored struct {
		name  string
		score float64
	}
	lowered := strings.ToLower(target)
	ranked := make([]scored, 0, len(pool))
	for _, name := range pool {
		ranked = append(ranked, scored{name: name, score: similarity(lowered, strings.ToLower(name))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = ranked[i].name
	}
	return out
}

// similarity is 1 minus the normalized edit distance between a and b.
func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein([]rune(a), []rune(b)))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
