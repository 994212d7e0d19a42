// Package citation detects Philippine bill and statute citations in free text
// (House Bills, Senate Bills, Republic Acts) and turns them into links to the
// official document repositories.
//
// The pipeline is Scan -> Resolve -> Link -> Render. Every step is a pure
// function of its input: no I/O, no shared mutable state.
package citation

import "strings"

// Kind classifies the legislative document a citation refers to.
type Kind string

const (
	KindRepublicAct Kind = "ra"
	KindHouse       Kind = "house"
	KindSenate      Kind = "senate"
	KindUnknown     Kind = "unknown"
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	return string(k)
}

// classifyKind maps a loosely formatted kind or chamber label onto a Kind.
// Labels reported by the analysis model ("House", "Senate", "Republic Act",
// "RA") are accepted as well as the canonical constants.
func classifyKind(label string) Kind {
	lowerLabel := strings.ToLower(label)
	switch {
	case strings.Contains(lowerLabel, "house"):
		return KindHouse
	case strings.Contains(lowerLabel, "senate"):
		return KindSenate
	case strings.Contains(lowerLabel, "ra"), strings.Contains(lowerLabel, "republic act"):
		return KindRepublicAct
	default:
		return KindUnknown
	}
}

// Match is a single citation occurrence found in a text.
// Offsets are byte offsets into the scanned string.
type Match struct {
	// Raw text as found in the source, phrase and number, original casing.
	RawText string `json:"raw_text"`

	// Number is the digit string that follows the phrase.
	Number string `json:"number"`

	Kind Kind `json:"kind"`

	TextOffset int `json:"text_offset"`
	TextLength int `json:"text_length"`
}

// End returns the offset one past the last byte of the match.
func (m Match) End() int {
	return m.TextOffset + m.TextLength
}

// Overlaps reports whether two matches share at least one byte of text.
func (m Match) Overlaps(other Match) bool {
	return m.TextOffset < other.End() && other.TextOffset < m.End()
}

// Citation is a resolved match annotated with its synthesized document link.
type Citation struct {
	Match

	// URL is empty when no link could be built for the citation.
	URL string `json:"url,omitempty"`
}

// Linked reports whether a document link was synthesized for the citation.
func (c Citation) Linked() bool {
	return c.URL != ""
}
