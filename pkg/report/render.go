package report

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/citation"
)

const timestampLayout = "2006-01-02 15:04 MST"

// renderMarkdown writes citations as [text](url) links.
func renderMarkdown(result *analysis.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", reportTitle(result)))
	sb.WriteString(fmt.Sprintf("**Analysis:** %s | **Generated:** %s\n\n", result.Plan, result.CreatedAt.Format(timestampLayout)))
	if result.Keyword != "" {
		sb.WriteString(fmt.Sprintf("**Keyword:** %s\n\n", result.Keyword))
	}
	for _, line := range billLines(result) {
		sb.WriteString(fmt.Sprintf("- %s\n", line))
	}
	sb.WriteString("\n")

	for _, sec := range buildSections(result) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", sec.Title))
		for _, e := range sec.Entries {
			sb.WriteString(fmt.Sprintf("### %s\n\n", e.Label))
			if e.List {
				for _, item := range e.Paragraphs {
					sb.WriteString(fmt.Sprintf("- %s\n", markdownSpans(item)))
				}
				sb.WriteString("\n")
				continue
			}
			for _, paragraph := range e.Paragraphs {
				sb.WriteString(markdownSpans(paragraph))
				sb.WriteString("\n\n")
			}
		}
	}

	return sb.String()
}

var (
	markdownLinkTextEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)
	markdownURLEscaper      = strings.NewReplacer(` `, `%20`, `(`, `%28`, `)`, `%29`, `<`, `%3C`, `>`, `%3E`)
)

func markdownSpans(spans []citation.Span) string {
	var sb strings.Builder
	for _, span := range spans {
		if span.IsLink() && isWebURL(span.URL) {
			sb.WriteString(fmt.Sprintf("[%s](%s)", markdownLinkTextEscaper.Replace(span.Text), markdownURLEscaper.Replace(span.URL)))
			continue
		}
		sb.WriteString(span.Text)
	}
	return sb.String()
}

// renderHTML writes a self-contained document. All text is escaped; links
// open in a new tab.
func renderHTML(result *analysis.Result) string {
	var sb strings.Builder
	title := html.EscapeString(reportTitle(result))

	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
`)
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", title))
	sb.WriteString(`<style>
:root {
  --border-color: #dee2e6;
  --text-color: #212529;
  --text-muted: #6c757d;
  --link-color: #0b5394;
}
body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
  line-height: 1.6;
  color: var(--text-color);
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
}
h1 { border-bottom: 2px solid var(--border-color); padding-bottom: 0.3em; }
h2 { border-bottom: 1px solid var(--border-color); padding-bottom: 0.2em; margin-top: 1.5em; }
.meta { color: var(--text-muted); }
a { color: var(--link-color); }
</style>
</head>
<body>
`)

	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", title))
	sb.WriteString(fmt.Sprintf("<p class=\"meta\">Analysis: %s | Generated: %s</p>\n",
		html.EscapeString(string(result.Plan)), html.EscapeString(result.CreatedAt.Format(timestampLayout))))
	if result.Keyword != "" {
		sb.WriteString(fmt.Sprintf("<p class=\"meta\">Keyword: %s</p>\n", html.EscapeString(result.Keyword)))
	}
	sb.WriteString("<ul>\n")
	for _, line := range billLines(result) {
		sb.WriteString(fmt.Sprintf("<li>%s</li>\n", html.EscapeString(line)))
	}
	sb.WriteString("</ul>\n")

	for _, sec := range buildSections(result) {
		sb.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(sec.Title)))
		for _, e := range sec.Entries {
			sb.WriteString(fmt.Sprintf("<h3>%s</h3>\n", html.EscapeString(e.Label)))
			if e.List {
				sb.WriteString("<ul>\n")
				for _, item := range e.Paragraphs {
					sb.WriteString(fmt.Sprintf("<li>%s</li>\n", htmlSpans(item)))
				}
				sb.WriteString("</ul>\n")
				continue
			}
			for _, paragraph := range e.Paragraphs {
				sb.WriteString(fmt.Sprintf("<p>%s</p>\n", htmlSpans(paragraph)))
			}
		}
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func htmlSpans(spans []citation.Span) string {
	var sb strings.Builder
	for _, span := range spans {
		text := strings.ReplaceAll(html.EscapeString(span.Text), "\n", "<br>\n")
		if span.IsLink() && isWebURL(span.URL) {
			sb.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				html.EscapeString(span.URL), text))
			continue
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func renderJSON(result *analysis.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	return string(data), nil
}

// renderText writes plain text with each linked citation followed by its
// URL in angle brackets.
func renderText(result *analysis.Result) string {
	var sb strings.Builder

	title := reportTitle(result)
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	sb.WriteString(fmt.Sprintf("Analysis: %s\nGenerated: %s\n", result.Plan, result.CreatedAt.Format(timestampLayout)))
	if result.Keyword != "" {
		sb.WriteString(fmt.Sprintf("Keyword: %s\n", result.Keyword))
	}
	for _, line := range billLines(result) {
		sb.WriteString(line + "\n")
	}

	for _, sec := range buildSections(result) {
		sb.WriteString(fmt.Sprintf("\n%s\n%s\n", strings.ToUpper(sec.Title), strings.Repeat("-", len(sec.Title))))
		for _, e := range sec.Entries {
			sb.WriteString(fmt.Sprintf("\n%s:\n", e.Label))
			for _, paragraph := range e.Paragraphs {
				if e.List {
					sb.WriteString("  * ")
				}
				sb.WriteString(textSpans(paragraph))
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

func textSpans(spans []citation.Span) string {
	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.Text)
		if span.IsLink() {
			sb.WriteString(fmt.Sprintf(" <%s>", span.URL))
		}
	}
	return sb.String()
}
