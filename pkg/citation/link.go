package citation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// DefaultHouseBaseURL hosts House bill PDFs as basic_{congress}/{code}.pdf.
	DefaultHouseBaseURL = "https://docs.congress.hrep.online/legisdocs"

	// DefaultSenateSearchURL is the Senate legislative information search page.
	DefaultSenateSearchURL = "https://web.senate.gov.ph/lis/bill_res.aspx"

	// DefaultRepublicActBaseURL lists enacted Republic Acts on the Official Gazette.
	DefaultRepublicActBaseURL = "https://www.officialgazette.gov.ph/republic-acts"
)

var (
	digitRunPattern  = regexp.MustCompile(`\d+`)
	nonDigitPattern  = regexp.MustCompile(`\D`)
	whitespaceRegexp = regexp.MustCompile(Whitespace)
)

// Linker synthesizes document URLs for citations. The zero value is not
// usable; use DefaultLinker or NewLinker.
type Linker struct {
	HouseBaseURL       string
	SenateSearchURL    string
	RepublicActBaseURL string
}

// NewLinker creates a linker, falling back to the default repository URLs
// for any empty base.
func NewLinker(houseBaseURL, senateSearchURL, republicActBaseURL string) *Linker {
	if houseBaseURL == "" {
		houseBaseURL = DefaultHouseBaseURL
	}
	if senateSearchURL == "" {
		senateSearchURL = DefaultSenateSearchURL
	}
	if republicActBaseURL == "" {
		republicActBaseURL = DefaultRepublicActBaseURL
	}
	return &Linker{
		HouseBaseURL:       strings.TrimRight(houseBaseURL, "/"),
		SenateSearchURL:    senateSearchURL,
		RepublicActBaseURL: strings.TrimRight(republicActBaseURL, "/"),
	}
}

// DefaultLinker links to the official House, Senate and Gazette sites.
var DefaultLinker = NewLinker("", "", "")

// Link returns the document URL for a citation, or false when none can be built.
//
// number is the citation number (or a full bill identifier), kind is a Kind or
// a chamber label, congressHint is any string containing the congress number
// ("19th Congress", "19"), and fullMatchText is the citation as written.
// Link never panics; a missing link is a normal outcome.
func (linker *Linker) Link(number string, kind Kind, congressHint, fullMatchText string) (string, bool) {
	if isUnspecified(number) || isUnspecified(string(kind)) {
		return "", false
	}

	sessionNumber := digitRunPattern.FindString(congressHint)

	switch classifyKind(string(kind)) {
	case KindHouse:
		if sessionNumber == "" {
			return "", false
		}
		billCode := normalizeHouseBillCode(number, fullMatchText)
		return fmt.Sprintf("%s/basic_%s/%s.pdf",
			linker.HouseBaseURL, sessionNumber, url.PathEscape(billCode)), true

	case KindSenate:
		if sessionNumber == "" {
			return "", false
		}
		query := fullMatchText
		if query == "" {
			query = number
		}
		return fmt.Sprintf("%s?congress=%s&q=%s",
			linker.SenateSearchURL, sessionNumber, escapeQueryComponent(query)), true

	case KindRepublicAct:
		actNumber := strings.TrimLeft(nonDigitPattern.ReplaceAllString(number, ""), "0")
		if actNumber == "" {
			return "", false
		}
		return fmt.Sprintf("%s/republic-act-no-%s/", linker.RepublicActBaseURL, actNumber), true

	default:
		return "", false
	}
}

// Link synthesizes a URL with DefaultLinker.
func Link(number string, kind Kind, congressHint, fullMatchText string) (string, bool) {
	return DefaultLinker.Link(number, kind, congressHint, fullMatchText)
}

// isUnspecified reports whether a field is empty or holds a placeholder value.
func isUnspecified(value string) bool {
	if value == "" {
		return true
	}
	lowerValue := strings.ToLower(value)
	return lowerValue == "not specified" || lowerValue == "n/a"
}

// normalizeHouseBillCode turns "House Bill No. 1234", "H.R. 1234" or "hb 1234"
// into the "HB1234" form used by the House document repository.
func normalizeHouseBillCode(number, fullMatchText string) string {
	source := fullMatchText
	if source == "" {
		source = number
	}
	billIdentifier := strings.ToUpper(whitespaceRegexp.ReplaceAllString(source, ""))

	switch {
	case strings.HasPrefix(billIdentifier, "HB"):
		return billIdentifier
	case strings.HasPrefix(billIdentifier, "H.R."):
		return "HB" + strings.TrimPrefix(billIdentifier, "H.R.")
	default:
		return "HB" + nonDigitPattern.ReplaceAllString(billIdentifier, "")
	}
}

// escapeQueryComponent escapes a query value with %20 for spaces, matching
// what the Senate search page produces itself.
func escapeQueryComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
