package hierarchy

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords excluded from keyword naming. Matches are case-insensitive and
// only words longer than three characters are counted in the first place.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"that": {}, "this": {}, "these": {}, "those": {}, "have": {}, "been": {},
	"being": {}, "does": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"might": {}, "must": {}, "shall": {}, "about": {}, "between": {},
	"using": {}, "based": {}, "toward": {}, "towards": {}, "their": {},
	"topics": {}, "items": {}, "related": {}, "notes": {}, "note": {},
}

// KeywordName derives a display name for a group from its members' titles:
// the topN most frequent non-stopword words, capitalized and joined.
// Returns "" when no usable words exist; callers fall back to a placeholder.
func KeywordName(titles []string, topN int) string {
	if topN <= 0 {
		topN = 3
	}

	counts := make(map[string]int)
	for _, title := range titles {
		seen := make(map[string]struct{})
		for _, word := range strings.FieldsFunc(title, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}) {
			lower := strings.ToLower(word)
			if len(lower) <= 3 {
				continue
			}
			if _, skip := stopwords[lower]; skip {
				continue
			}
			// Count each word once per title so one verbose title cannot
			// dominate the name.
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			counts[lower]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > topN {
		words = words[:topN]
	}

	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
