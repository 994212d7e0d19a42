// Package bill models the user-supplied description of a bill and reconciles
// its mutually exclusive input modes: manual lookup by congress and number,
// pasted text, or an uploaded PDF.
package bill

import (
	"errors"
	"regexp"
	"strings"
)

// Chamber identifies where a bill originates.
type Chamber string

const (
	ChamberHouse       Chamber = "House"
	ChamberSenate      Chamber = "Senate"
	ChamberRepublicAct Chamber = "RA"
	ChamberUnknown     Chamber = "N/A"
)

// String returns the string representation of a Chamber.
func (c Chamber) String() string {
	return string(c)
}

// ChamberFromNumber infers the chamber from a bill number prefix such as
// "HB 1234", "SBN-567" or "R.A. 8799". Unrecognized or empty numbers yield
// ChamberUnknown.
func ChamberFromNumber(billNumber string) Chamber {
	if billNumber == "" {
		return ChamberUnknown
	}
	upperNumber := strings.ToUpper(billNumber)

	hasAnyPrefix := func(prefixes ...string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(upperNumber, prefix) {
				return true
			}
		}
		return false
	}

	switch {
	case hasAnyPrefix("HR", "H.R.", "HB"):
		return ChamberHouse
	case hasAnyPrefix("S.", "SB", "S.RES", "S.J.RES", "SBN"):
		return ChamberSenate
	case hasAnyPrefix("RA", "R.A."):
		return ChamberRepublicAct
	default:
		return ChamberUnknown
	}
}

// Mode is how a bill's text is supplied.
type Mode string

const (
	ModeEmpty  Mode = "empty"
	ModeManual Mode = "manual"
	ModePasted Mode = "pasted"
	ModePDF    Mode = "pdf"
)

// PDFContentType is the only accepted upload content type.
const PDFContentType = "application/pdf"

// ErrNotPDF is returned when an upload is not a PDF.
var ErrNotPDF = errors.New("please select a PDF file")

// Details describes one bill as entered by the user and, after Finalize, as
// prepared for analysis.
type Details struct {
	Congress string  `json:"congress"`
	Number   string  `json:"number"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Chamber  Chamber `json:"chamber"`
	FileName string  `json:"fileName,omitempty"`
	IsPasted bool    `json:"isPasted,omitempty"`
}

// Mode reports which input mode is active. A file takes precedence over
// pasted text, which takes precedence over manual fields.
func (d Details) Mode() Mode {
	switch {
	case d.FileName != "":
		return ModePDF
	case d.IsPasted:
		return ModePasted
	case d.Congress != "" || d.Number != "":
		return ModeManual
	default:
		return ModeEmpty
	}
}

// HasManualInput reports whether both congress and number are filled in.
func (d Details) HasManualInput() bool {
	return d.Congress != "" && d.Number != ""
}

// Provided reports whether the bill has enough input to be analyzed on its own.
func (d Details) Provided() bool {
	return d.HasManualInput() || d.FileName != "" || d.IsPasted
}

// reset returns a bill carrying only congress and number from d.
func (d Details) reset() Details {
	return Details{
		Congress: d.Congress,
		Number:   d.Number,
		Chamber:  chamberOrUnknown(d.Number),
	}
}

func chamberOrUnknown(number string) Chamber {
	if number == "" {
		return ChamberUnknown
	}
	return ChamberFromNumber(number)
}

// Field names accepted by WithManualField.
const (
	FieldCongress = "congress"
	FieldNumber   = "number"
)

// WithManualField sets congress or number and clears any pasted text or file.
// Unknown field names leave the manual fields unchanged.
func (d Details) WithManualField(field, value string) Details {
	next := d.reset()
	switch field {
	case FieldCongress:
		next.Congress = value
	case FieldNumber:
		next.Number = value
		next.Chamber = ChamberFromNumber(value)
	}
	return next
}

// WithPastedText switches the bill to pasted text. Empty text clears the
// pasted mode.
func (d Details) WithPastedText(text string) Details {
	next := d.reset()
	next.Text = text
	if text != "" {
		next.Title = PastedTitle
		next.IsPasted = true
	}
	return next
}

// WithPDF switches the bill to an uploaded PDF. Extraction is simulated: the
// text only names the file.
func (d Details) WithPDF(fileName, contentType string) (Details, error) {
	if !isPDF(contentType) {
		return d, ErrNotPDF
	}
	next := d.reset()
	next.FileName = fileName
	next.Text = SimulatedPDFText(fileName)
	next.Title = "Uploaded PDF: " + fileName
	return next, nil
}

// WithoutFile clears a selected file or pasted text, keeping congress and number.
func (d Details) WithoutFile() Details {
	return d.reset()
}

// SimulatedPDFText is the placeholder text used for an uploaded PDF.
func SimulatedPDFText(fileName string) string {
	return "Simulated text from uploaded PDF: " + fileName + ". Actual PDF content extraction is not implemented."
}

func isPDF(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), PDFContentType)
}

// ManualInputDisabled reports whether the congress and number fields are locked.
func ManualInputDisabled(d Details, keyword string) bool {
	return d.FileName != "" || d.IsPasted || keyword != ""
}

// PDFUploadDisabled reports whether a PDF can no longer be selected.
func PDFUploadDisabled(d Details, keyword string) bool {
	return d.IsPasted || d.HasManualInput() || keyword != ""
}

// TextareaDisabled reports whether text can no longer be pasted.
func TextareaDisabled(d Details, keyword string) bool {
	return d.FileName != "" || d.HasManualInput() || keyword != ""
}

// KeywordSearchDisabled reports whether keyword search is locked by a file or
// pasted text on either bill.
func KeywordSearchDisabled(bill1, bill2 Details) bool {
	return bill1.FileName != "" || bill2.FileName != "" || bill1.IsPasted || bill2.IsPasted
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// ExportFilename returns the download name for an exported comment.
func ExportFilename(billTitle string) string {
	safeTitle := unsafeFilenameChars.ReplaceAllString(billTitle, "_")
	if safeTitle == "" {
		safeTitle = "Comment"
	}
	return "SEC_Comment_" + safeTitle + ".txt"
}
