package citation

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a declarative citation rule: a set of prefix phrases that must be
// followed by a run of digits. Phrases are regular expression fragments and are
// tried in declaration order, so longer variants ("House Bill No.") must come
// before the bare abbreviations they share a prefix with.
type Pattern struct {
	Kind    Kind
	Phrases []string

	expression  *regexp.Regexp
	numberGroup int
}

// Whitespace matches what web clients treat as white space: ASCII spacing,
// vertical tab, every Unicode space separator (NBSP included), the line and
// paragraph separators, and the byte order mark. Phrase fragments should use
// it instead of \s, which is ASCII-only.
const Whitespace = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

// NewPattern compiles a case-insensitive "phrase + whitespace* + digits" rule.
func NewPattern(kind Kind, phrases ...string) (*Pattern, error) {
	if kind == "" {
		return nil, fmt.Errorf("citation pattern kind cannot be empty")
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("citation pattern %q has no phrases", kind)
	}

	source := `(?i)(` + strings.Join(phrases, "|") + `)` + Whitespace + `*(\d+)`
	expression, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("citation pattern %q: %w", kind, err)
	}

	return &Pattern{
		Kind:        kind,
		Phrases:     append([]string(nil), phrases...),
		expression:  expression,
		numberGroup: 2,
	}, nil
}

// MustPattern is like NewPattern but panics on error. It is intended for
// package-level catalog definitions.
func MustPattern(kind Kind, phrases ...string) *Pattern {
	pattern, err := NewPattern(kind, phrases...)
	if err != nil {
		panic(err)
	}
	return pattern
}

// String returns the compiled expression source.
func (p *Pattern) String() string {
	return p.expression.String()
}

// Catalog is an ordered, immutable list of citation patterns. Order is the
// tie-break when two kinds match at the same offset: the earlier pattern wins.
// A Catalog is safe for concurrent use.
type Catalog struct {
	patterns []*Pattern
}

// NewCatalog builds a catalog from the given patterns, in order.
// Returns an error if a pattern is nil or a kind is registered twice.
func NewCatalog(patterns ...*Pattern) (*Catalog, error) {
	seenKinds := make(map[Kind]bool, len(patterns))
	ordered := make([]*Pattern, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern == nil {
			return nil, fmt.Errorf("citation pattern cannot be nil")
		}
		if seenKinds[pattern.Kind] {
			return nil, fmt.Errorf("citation pattern %q already registered", pattern.Kind)
		}
		seenKinds[pattern.Kind] = true
		ordered = append(ordered, pattern)
	}

	return &Catalog{patterns: ordered}, nil
}

// Patterns returns a copy of the catalog's patterns in evaluation order.
func (c *Catalog) Patterns() []*Pattern {
	result := make([]*Pattern, len(c.patterns))
	copy(result, c.patterns)
	return result
}

// Kinds returns the registered kinds in evaluation order.
func (c *Catalog) Kinds() []Kind {
	kinds := make([]Kind, 0, len(c.patterns))
	for _, pattern := range c.patterns {
		kinds = append(kinds, pattern.Kind)
	}
	return kinds
}

// Get returns the pattern registered for a kind.
func (c *Catalog) Get(kind Kind) (*Pattern, bool) {
	for _, pattern := range c.patterns {
		if pattern.Kind == kind {
			return pattern, true
		}
	}
	return nil, false
}

// Count returns the number of patterns in the catalog.
func (c *Catalog) Count() int {
	return len(c.patterns)
}

// Republic Acts first, then House, then Senate.
var defaultCatalog = func() *Catalog {
	catalog, err := NewCatalog(
		MustPattern(KindRepublicAct,
			`Republic` + Whitespace + `Act(?:` + Whitespace + `*No\.?)?`,
			`R\.A\.(?:` + Whitespace + `*No\.?)?`,
			`RA`,
		),
		MustPattern(KindHouse,
			`House` + Whitespace + `Bill(?:` + Whitespace + `*No\.?)?`,
			`H\.B\.(?:` + Whitespace + `*No\.?)?`,
			`HB`,
			`House` + Whitespace + `Resolution(?:` + Whitespace + `*No\.?)?`,
			`H\.Res\.(?:` + Whitespace + `*No\.?)?`,
			`HR`,
		),
		MustPattern(KindSenate,
			`Senate` + Whitespace + `Bill(?:` + Whitespace + `*No\.?)?`,
			`S\.B\.(?:` + Whitespace + `*No\.?)?`,
			`SBN`,
			`Senate` + Whitespace + `Resolution(?:` + Whitespace + `*No\.?)?`,
			`S\.Res\.(?:` + Whitespace + `*No\.?)?`,
			`SR`,
		),
	)
	if err != nil {
		panic(err)
	}
	return catalog
}()

// DefaultCatalog returns the built-in Republic Act / House / Senate catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
