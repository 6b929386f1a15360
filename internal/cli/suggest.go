package cli

import (
	"fmt"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// maxCategoryDistance bounds the edit distance of a category suggestion.
const maxCategoryDistance = 3

// maxIDSuggestions caps the IDs listed for an unknown item.
const maxIDSuggestions = 3

// parseCategory resolves a category flag and suggests the closest known
// category when the value is not recognized.
func parseCategory(s string) (string, error) {
	category, err := types.ParseCategory(s)
	if err == nil {
		return category, nil
	}
	if hint := suggestCategory(s); hint != "" {
		return "", fmt.Errorf("%w %q (did you mean %s?)", err, s, hint)
	}
	return "", fmt.Errorf("%w %q (valid: %s)", err, s, strings.Join(types.Categories, ", "))
}

// suggestCategory returns the category nearest to s by edit distance, or
// "" when none is close.
func suggestCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	best, bestDist := "", maxCategoryDistance+1
	for _, c := range types.Categories {
		if d := lfuzzy.LevenshteinDistance(s, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestIDs returns up to maxIDSuggestions loaded IDs that fuzzily match
// id, best first.
func suggestIDs(id string, items []types.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ItemID
	}

	matches := fuzzy.Find(strings.ToLower(id), ids)
	out := make([]string, 0, maxIDSuggestions)
	for _, m := range matches {
		if len(out) == maxIDSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
