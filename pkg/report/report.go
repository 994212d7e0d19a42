// Package report renders analysis results as Markdown, HTML, JSON or plain
// text, with bill citations turned into links, and prepares draft SEC
// comments for export.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/bill"
	"github.com/coolbeans/legiscompare/pkg/citation"
)

// Format is an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatHTML, FormatJSON, FormatText}
}

// ParseFormat accepts a format name case-insensitively, plus "md".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", name)
	}
}

// Render converts an analysis result to the given format.
func Render(result *analysis.Result, format Format) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is nil")
	}

	switch format {
	case FormatMarkdown:
		return renderMarkdown(result), nil
	case FormatHTML:
		return renderHTML(result), nil
	case FormatJSON:
		return renderJSON(result)
	case FormatText:
		return renderText(result), nil
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
}

// entry is one labelled block of a section. Each paragraph is a run of
// spans; list entries hold one paragraph per item.
type entry struct {
	Label      string
	Paragraphs [][]citation.Span
	List       bool
}

type section struct {
	Title   string
	Entries []entry
}

var prefixTitles = map[string]string{
	"bill1Summary": "Bill 1 Summary",
	"bill2Summary": "Bill 2 Summary",
	"comparison":   "Comparison",
	"assessment":   "Regulatory Impact Assessment",
}

// buildSections groups the result's fields into titled sections in display
// order. Draft comments come from result.Comments, which may have been edited.
func buildSections(result *analysis.Result) []section {
	var sections []section
	indexByTitle := make(map[string]int)

	addEntry := func(title string, e entry) {
		index, exists := indexByTitle[title]
		if !exists {
			index = len(sections)
			indexByTitle[title] = index
			sections = append(sections, section{Title: title})
		}
		sections[index].Entries = append(sections[index].Entries, e)
	}

	for _, field := range result.Fields() {
		prefix, key, _ := strings.Cut(field.Key, ".")
		if prefix == "comparison" && strings.HasPrefix(key, "regulatoryImpactAssessment") {
			continue
		}

		title := prefixTitles[prefix]
		if prefix == "detailed" {
			title = field.Section
		}

		e := entry{Label: field.Label, List: field.Items != nil}
		if e.List {
			for index, item := range field.Items {
				e.Paragraphs = append(e.Paragraphs, spansFor(result, field.Key+"."+strconv.Itoa(index), item))
			}
		} else {
			e.Paragraphs = [][]citation.Span{spansFor(result, field.Key, field.Text)}
		}
		addEntry(title, e)
	}

	if result.Comments.Bill1 != "" || result.Comments.Bill2 != "" {
		comments := []struct {
			key, label, text string
		}{
			{"comparison.regulatoryImpactAssessmentBill1", "Comment for " + billLabel(result.Bill1, "Bill 1"), result.Comments.Bill1},
			{"comparison.regulatoryImpactAssessmentBill2", "Comment for " + billLabel(derefBill(result.Bill2), "Bill 2"), result.Comments.Bill2},
		}
		for _, comment := range comments {
			if comment.text == "" {
				continue
			}
			addEntry("Draft SEC Comments", entry{
				Label:      comment.label,
				Paragraphs: [][]citation.Span{spansFor(result, comment.key, comment.text)},
			})
		}
	}

	return sections
}

// spansFor reuses the spans rendered during analysis when they still match
// the text and every link is a web URL, and renders afresh otherwise. Results
// posted back by clients carry their own Links.
func spansFor(result *analysis.Result, key, text string) []citation.Span {
	if spans, ok := result.Links[key]; ok && citation.PlainText(spans) == text && webLinks(spans) {
		return spans
	}
	return citation.Render(text, result.CongressHint())
}

func webLinks(spans []citation.Span) bool {
	for _, span := range spans {
		if span.IsLink() && !isWebURL(span.URL) {
			return false
		}
	}
	return true
}

// isWebURL reports whether raw is an absolute http or https URL.
func isWebURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func derefBill(details *bill.Details) bill.Details {
	if details == nil {
		return bill.Details{}
	}
	return *details
}

func billLabel(details bill.Details, fallback string) string {
	if details.Title != "" {
		return details.Title
	}
	return fallback
}

// billLines describes the analyzed bills, one line each.
func billLines(result *analysis.Result) []string {
	describe := func(name string, details bill.Details) string {
		parts := []string{}
		for _, value := range []string{details.Congress, details.Number, details.Chamber.String()} {
			if value != "" && value != bill.ChamberUnknown.String() {
				parts = append(parts, value)
			}
		}
		line := fmt.Sprintf("%s: %s", name, billLabel(details, "Untitled"))
		if len(parts) > 0 {
			line += " (" + strings.Join(parts, ", ") + ")"
		}
		return line
	}

	lines := []string{describe("Bill 1", result.Bill1)}
	if result.Bill2 != nil {
		lines = append(lines, describe("Bill 2", *result.Bill2))
	}
	return lines
}

func reportTitle(result *analysis.Result) string {
	switch result.Plan {
	case analysis.PlanDetailed:
		return "Detailed SEC Analysis: " + billLabel(result.Bill1, "Bill 1")
	case analysis.PlanComparison:
		return "Bill Comparison: " + billLabel(result.Bill1, "Bill 1") + " vs. " + billLabel(derefBill(result.Bill2), "Bill 2")
	default:
		return "Bill Summary: " + billLabel(result.Bill1, "Bill 1")
	}
}

// ErrEmptyComment is returned when exporting an empty comment.
var ErrEmptyComment = errors.New("there is no comment to export")

// CommentExport is a draft comment ready for download.
type CommentExport struct {
	Filename string `json:"filename"`
	Body     string `json:"body"`
}

// ExportComment prepares a comment for download under a filename derived
// from the bill title.
func ExportComment(comment, billTitle string) (CommentExport, error) {
	if strings.TrimSpace(comment) == "" {
		return CommentExport{}, ErrEmptyComment
	}
	return CommentExport{
		Filename: bill.ExportFilename(billTitle),
		Body:     comment,
	}, nil
}

// ExportComments prepares the result's draft comments. Bill titles default
// to "Bill_1" and "Bill_2"; empty comments are skipped.
func ExportComments(result *analysis.Result) []CommentExport {
	candidates := []struct {
		comment string
		title   string
	}{
		{result.Comments.Bill1, billLabel(result.Bill1, "Bill_1")},
		{result.Comments.Bill2, billLabel(derefBill(result.Bill2), "Bill_2")},
	}

	var exports []CommentExport
	seen := make(map[string]bool)
	for i, candidate := range candidates {
		export, err := ExportComment(candidate.comment, candidate.title)
		if err != nil {
			continue
		}
		// Two pasted bills share a title.
		if seen[export.Filename] {
			export.Filename = bill.ExportFilename(fmt.Sprintf("%s Bill %d", candidate.title, i+1))
		}
		seen[export.Filename] = true
		exports = append(exports, export)
	}
	return exports
}
