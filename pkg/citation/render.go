package citation

import "encoding/json"

// Span is one piece of rendered text: plain when URL is empty, otherwise a
// link whose display text is Text.
type Span struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// IsLink reports whether the span carries a document link.
func (s Span) IsLink() bool {
	return s.URL != ""
}

// MarshalJSON tags each span with its variant so display layers do not need
// to infer it from the URL field.
func (s Span) MarshalJSON() ([]byte, error) {
	spanType := "text"
	if s.IsLink() {
		spanType = "link"
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
		URL  string `json:"url,omitempty"`
	}{spanType, s.Text, s.URL})
}

// Renderer annotates text using a catalog and a linker.
type Renderer struct {
	catalog *Catalog
	linker  *Linker
}

// NewRenderer creates a renderer. Nil arguments select the defaults.
func NewRenderer(catalog *Catalog, linker *Linker) *Renderer {
	if catalog == nil {
		catalog = defaultCatalog
	}
	if linker == nil {
		linker = DefaultLinker
	}
	return &Renderer{catalog: catalog, linker: linker}
}

// DefaultRenderer uses DefaultCatalog and DefaultLinker.
var DefaultRenderer = NewRenderer(nil, nil)

// Annotate returns the resolved citations in text, in order, with their links.
func (renderer *Renderer) Annotate(text, congressHint string) []Citation {
	resolved := Resolve(renderer.catalog.Scan(text))

	citations := make([]Citation, 0, len(resolved))
	for _, match := range resolved {
		linkURL, _ := renderer.linker.Link(match.Number, match.Kind, congressHint, match.RawText)
		citations = append(citations, Citation{Match: match, URL: linkURL})
	}
	return citations
}

// Render splits text into alternating plain and linked spans. Citations that
// cannot be linked stay as plain spans with their original text. Empty text
// yields a single span holding the input unchanged.
func (renderer *Renderer) Render(text, congressHint string) []Span {
	if text == "" {
		return []Span{{Text: text}}
	}

	return Spans(text, renderer.Annotate(text, congressHint))
}

// Spans splits text around citations, which must be resolved (ascending and
// non-overlapping) matches of that same text, as returned by Annotate.
func Spans(text string, citations []Citation) []Span {
	if len(citations) == 0 {
		return []Span{{Text: text}}
	}

	spans := make([]Span, 0, 2*len(citations)+1)
	lastIndex := 0

	for _, citation := range citations {
		if citation.TextOffset > lastIndex {
			spans = append(spans, Span{Text: text[lastIndex:citation.TextOffset]})
		}
		spans = append(spans, Span{Text: citation.RawText, URL: citation.URL})
		lastIndex = citation.End()
	}

	if lastIndex < len(text) {
		spans = append(spans, Span{Text: text[lastIndex:]})
	}

	return spans
}

// Annotate uses DefaultRenderer.
func Annotate(text, congressHint string) []Citation {
	return DefaultRenderer.Annotate(text, congressHint)
}

// Render uses DefaultRenderer.
func Render(text, congressHint string) []Span {
	return DefaultRenderer.Render(text, congressHint)
}

// PlainText joins spans back into the text they were rendered from.
func PlainText(spans []Span) string {
	total := 0
	for _, span := range spans {
		total += len(span.Text)
	}
	buffer := make([]byte, 0, total)
	for _, span := range spans {
		buffer = append(buffer, span.Text...)
	}
	return string(buffer)
}
