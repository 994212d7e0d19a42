package bill

import (
	"context"
	"errors"
	"fmt"

	"github.com/coolbeans/legiscompare/pkg/billtext"
)

// Defaults written into a finalized bill when the user left a field empty.
const (
	UploadedPDFCongress = "N/A (Uploaded PDF)"
	PastedCongress      = "N/A (Pasted Text)"
	PastedNumber        = "Pasted Content"
	PastedTitle         = "Pasted Bill Text"
)

// ErrNoText is returned when a bill ends up without text to analyze.
var ErrNoText = errors.New("bill text could not be obtained")

// Finalize prepares the bill for analysis: it fills defaults for the active
// mode, fetches text for manual or keyword input, and synthesizes a title.
// A non-empty keyword takes over unless a PDF or pasted text is present.
func (d Details) Finalize(ctx context.Context, fetcher billtext.Fetcher, keyword string) (Details, error) {
	finalized := d

	switch {
	case d.FileName != "":
		finalized.Congress = valueOr(d.Congress, UploadedPDFCongress)
		finalized.Number = valueOr(d.Number, d.FileName)
		finalized.Chamber = resolveChamber(d.Chamber, finalized.Number)
		finalized.Title = "Uploaded PDF: " + d.FileName
		finalized.IsPasted = false
		if finalized.Text == "" {
			finalized.Text = SimulatedPDFText(d.FileName)
		}

	case d.IsPasted && d.Text != "":
		finalized.Congress = valueOr(d.Congress, PastedCongress)
		finalized.Number = valueOr(d.Number, PastedNumber)
		finalized.Chamber = resolveChamber(d.Chamber, finalized.Number)
		finalized.Title = valueOr(d.Title, PastedTitle)

	case keyword != "":
		congressForSearch := valueOr(d.Congress, billtext.Unspecified)
		numberForSearch := valueOr(d.Number, billtext.KeywordSearchNumber)

		text, err := fetcher.FetchBillText(ctx, billtext.Query{
			Congress:   congressForSearch,
			BillNumber: numberForSearch,
			Keyword:    keyword,
		})
		if err != nil {
			return d, fmt.Errorf("failed to fetch bill text for keyword %q: %w", keyword, err)
		}

		finalized = Details{
			Congress: d.Congress,
			Number:   d.Number,
			Text:     text,
			Chamber:  ChamberFromNumber(d.Number),
			Title:    keywordTitle(keyword, numberForSearch, congressForSearch),
		}

	case d.HasManualInput():
		text, err := fetcher.FetchBillText(ctx, billtext.Query{Congress: d.Congress, BillNumber: d.Number})
		if err != nil {
			return d, fmt.Errorf("failed to fetch bill %s (%s): %w", d.Number, d.Congress, err)
		}

		finalized.Text = text
		finalized.Chamber = resolveChamber(d.Chamber, d.Number)
		finalized.Title = manualTitle(finalized.Chamber, d.Number, d.Congress)
		finalized.FileName = ""
		finalized.IsPasted = false
	}

	if finalized.Text == "" {
		return d, ErrNoText
	}
	return finalized, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func resolveChamber(current Chamber, number string) Chamber {
	if current == "" || current == ChamberUnknown {
		return ChamberFromNumber(number)
	}
	return current
}

func manualTitle(chamber Chamber, number, congress string) string {
	prefix := ""
	if chamber != ChamberUnknown {
		prefix = string(chamber) + " "
	}
	return fmt.Sprintf("%sBill %s (%s)", prefix, number, congress)
}

func keywordTitle(keyword, number, congress string) string {
	quoted := `"` + keyword + `"`
	if number == billtext.KeywordSearchNumber {
		return fmt.Sprintf("Bill matching %s (Keyword: %s)", quoted, keyword)
	}
	if congress != billtext.Unspecified {
		return fmt.Sprintf("Bill matching %s (%s, %s)", quoted, number, congress)
	}
	return fmt.Sprintf("Bill matching %s (%s)", quoted, number)
}
