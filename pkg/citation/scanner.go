package citation

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// Scan runs every pattern in the catalog over the whole text and returns all
// raw matches, grouped by pattern in catalog order. Matches from different
// patterns may overlap; see Resolve.
func (c *Catalog) Scan(text string) []Match {
	var matches []Match
	for _, pattern := range c.patterns {
		matches = pattern.scan(text, matches)
	}
	return matches
}

// scan appends every match of the pattern in text to matches. A phrase
// letter outside ASCII never matches an ASCII letter: (?i) folds "ſ" to "s"
// and the Kelvin sign to "k", which web clients do not. Such a match is
// dropped and the search resumes one rune after its start.
func (p *Pattern) scan(text string, matches []Match) []Match {
	for position := 0; position < len(text); {
		matchIndices := p.expression.FindStringSubmatchIndex(text[position:])
		if matchIndices == nil {
			break
		}
		for i := range matchIndices {
			if matchIndices[i] >= 0 {
				matchIndices[i] += position
			}
		}

		start, end := matchIndices[0], matchIndices[1]
		if !asciiLetters(text[matchIndices[2]:matchIndices[3]]) {
			_, size := utf8.DecodeRuneInString(text[start:])
			position = start + size
			continue
		}

		numberStart := matchIndices[2*p.numberGroup]
		numberEnd := matchIndices[2*p.numberGroup+1]
		matches = append(matches, Match{
			RawText:    text[start:end],
			Number:     text[numberStart:numberEnd],
			Kind:       p.Kind,
			TextOffset: start,
			TextLength: end - start,
		})
		position = end
	}
	return matches
}

func asciiLetters(phrase string) bool {
	for _, r := range phrase {
		if r >= utf8.RuneSelf && unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Scan runs the default catalog over text.
func Scan(text string) []Match {
	return defaultCatalog.Scan(text)
}

// Resolve drops overlapping matches. Matches are stably sorted by offset, so
// equal offsets keep their scan (catalog) order, then walked once: a match is
// kept only if it starts at or after the end of the last kept match.
// The input slice is not modified.
func Resolve(matches []Match) []Match {
	if len(matches) == 0 {
		return []Match{}
	}

	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TextOffset < sorted[j].TextOffset
	})

	resolved := make([]Match, 0, len(sorted))
	lastAcceptedEnd := -1
	for _, candidate := range sorted {
		if candidate.TextOffset >= lastAcceptedEnd {
			resolved = append(resolved, candidate)
			lastAcceptedEnd = candidate.End()
		}
	}
	return resolved
}
