package bill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/legiscompare/pkg/billtext"
)

func TestChamberFromNumber(t *testing.T) {
	tests := []struct {
		number string
		want   Chamber
	}{
		{"HB 1234", ChamberHouse},
		{"hb1234", ChamberHouse},
		{"HR 15", ChamberHouse},
		{"H.R. 15", ChamberHouse},
		{"SBN-567", ChamberSenate},
		{"SB 2", ChamberSenate},
		{"S. 100", ChamberSenate},
		{"S.Res. 4", ChamberSenate},
		{"S.J.Res. 4", ChamberSenate},
		{"RA 8799", ChamberRepublicAct},
		{"R.A. 8799", ChamberRepublicAct},
		{"1234", ChamberUnknown},
		{"SRN-56", ChamberUnknown},
		{"", ChamberUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ChamberFromNumber(tt.number), "ChamberFromNumber(%q)", tt.number)
	}
}

func TestMode(t *testing.T) {
	assert.Equal(t, ModeEmpty, Details{}.Mode())
	assert.Equal(t, ModeManual, Details{Congress: "19"}.Mode())
	assert.Equal(t, ModePasted, Details{IsPasted: true, Text: "x"}.Mode())
	assert.Equal(t, ModePDF, Details{FileName: "bill.pdf", Number: "HB 1"}.Mode())
}

func TestTransitions(t *testing.T) {
	t.Run("manual_fields_keep_each_other", func(t *testing.T) {
		bill := Details{}.
			WithManualField(FieldCongress, "19").
			WithManualField(FieldNumber, "SBN 12")

		assert.Equal(t, "19", bill.Congress)
		assert.Equal(t, "SBN 12", bill.Number)
		assert.Equal(t, ChamberSenate, bill.Chamber)
		assert.Equal(t, ModeManual, bill.Mode())
	})

	t.Run("manual_edit_clears_pasted_text", func(t *testing.T) {
		bill := Details{Congress: "19"}.WithPastedText("SECTION 1").WithManualField(FieldNumber, "HB 3")

		assert.False(t, bill.IsPasted)
		assert.Empty(t, bill.Text)
		assert.Equal(t, ChamberHouse, bill.Chamber)
	})

	t.Run("pasted_text", func(t *testing.T) {
		bill := Details{Congress: "19", Number: "HB 1", FileName: "old.pdf"}.WithPastedText("SECTION 1")

		assert.True(t, bill.IsPasted)
		assert.Equal(t, PastedTitle, bill.Title)
		assert.Empty(t, bill.FileName)
		assert.Equal(t, "19", bill.Congress)
		assert.Equal(t, ModePasted, bill.Mode())
	})

	t.Run("empty_pasted_text_clears_mode", func(t *testing.T) {
		bill := Details{}.WithPastedText("SECTION 1").WithPastedText("")

		assert.False(t, bill.IsPasted)
		assert.Empty(t, bill.Title)
		assert.Equal(t, ModeEmpty, bill.Mode())
	})

	t.Run("pdf", func(t *testing.T) {
		bill, err := Details{Number: "SBN 9"}.WithPastedText("x").WithPDF("senate.pdf", "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, "senate.pdf", bill.FileName)
		assert.Equal(t, "Uploaded PDF: senate.pdf", bill.Title)
		assert.Equal(t, "Simulated text from uploaded PDF: senate.pdf. Actual PDF content extraction is not implemented.", bill.Text)
		assert.False(t, bill.IsPasted)
		assert.Equal(t, ChamberSenate, bill.Chamber)
	})

	t.Run("pdf_with_parameters", func(t *testing.T) {
		_, err := Details{}.WithPDF("a.pdf", "Application/PDF; charset=binary")
		assert.NoError(t, err)
	})

	t.Run("non_pdf_rejected", func(t *testing.T) {
		original := Details{Congress: "19"}
		bill, err := original.WithPDF("notes.txt", "text/plain")

		assert.ErrorIs(t, err, ErrNotPDF)
		assert.Equal(t, original, bill)
	})

	t.Run("clear_file", func(t *testing.T) {
		bill, err := Details{Congress: "19", Number: "HB 1"}.WithPDF("a.pdf", PDFContentType)
		require.NoError(t, err)

		cleared := bill.WithoutFile()
		assert.Empty(t, cleared.FileName)
		assert.Empty(t, cleared.Text)
		assert.Equal(t, "HB 1", cleared.Number)
		assert.Equal(t, ChamberHouse, cleared.Chamber)
	})
}

func TestDisablePredicates(t *testing.T) {
	manual := Details{Congress: "19", Number: "SBN 1"}
	pasted := Details{}.WithPastedText("text")
	pdf, err := Details{}.WithPDF("a.pdf", PDFContentType)
	require.NoError(t, err)

	assert.False(t, ManualInputDisabled(manual, ""))
	assert.True(t, ManualInputDisabled(pasted, ""))
	assert.True(t, ManualInputDisabled(pdf, ""))
	assert.True(t, ManualInputDisabled(Details{}, "tax"))

	assert.True(t, PDFUploadDisabled(manual, ""))
	assert.True(t, PDFUploadDisabled(pasted, ""))
	assert.False(t, PDFUploadDisabled(Details{Congress: "19"}, ""))
	assert.True(t, PDFUploadDisabled(Details{}, "tax"))

	assert.True(t, TextareaDisabled(manual, ""))
	assert.True(t, TextareaDisabled(pdf, ""))
	assert.False(t, TextareaDisabled(pasted, ""))
	assert.True(t, TextareaDisabled(Details{}, "tax"))

	assert.False(t, KeywordSearchDisabled(manual, Details{}))
	assert.True(t, KeywordSearchDisabled(manual, pasted))
	assert.True(t, KeywordSearchDisabled(pdf, Details{}))
}

func TestProvided(t *testing.T) {
	assert.False(t, Details{}.Provided())
	assert.False(t, Details{Congress: "19"}.Provided())
	assert.True(t, Details{Congress: "19", Number: "HB 1"}.Provided())
	assert.True(t, Details{IsPasted: true}.Provided())
	assert.True(t, Details{FileName: "a.pdf"}.Provided())
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Senate Bill SBN 12 (19)", "SEC_Comment_Senate_Bill_SBN_12__19_.txt"},
		{"Uploaded PDF: a.pdf", "SEC_Comment_Uploaded_PDF__a.pdf.txt"},
		{"plain-name_1.0", "SEC_Comment_plain-name_1.0.txt"},
		{"", "SEC_Comment_Comment.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportFilename(tt.title))
	}
}

// recordingFetcher returns canned text and records the queries it receives.
type recordingFetcher struct {
	text    string
	err     error
	queries []billtext.Query
}

func (f *recordingFetcher) FetchBillText(_ context.Context, query billtext.Query) (string, error) {
	f.queries = append(f.queries, query)
	return f.text, f.err
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("pdf_defaults", func(t *testing.T) {
		fetcher := &recordingFetcher{}
		bill, err := Details{}.WithPDF("HB 5.pdf", PDFContentType)
		require.NoError(t, err)

		finalized, err := bill.Finalize(ctx, fetcher, "")
		require.NoError(t, err)

		assert.Equal(t, UploadedPDFCongress, finalized.Congress)
		assert.Equal(t, "HB 5.pdf", finalized.Number)
		assert.Equal(t, ChamberHouse, finalized.Chamber)
		assert.Equal(t, "Uploaded PDF: HB 5.pdf", finalized.Title)
		assert.Empty(t, fetcher.queries)
	})

	t.Run("pasted_defaults", func(t *testing.T) {
		finalized, err := Details{}.WithPastedText("SECTION 1").Finalize(ctx, &recordingFetcher{}, "")
		require.NoError(t, err)

		assert.Equal(t, PastedCongress, finalized.Congress)
		assert.Equal(t, PastedNumber, finalized.Number)
		assert.Equal(t, PastedTitle, finalized.Title)
		assert.Equal(t, ChamberUnknown, finalized.Chamber)
		assert.Equal(t, "SECTION 1", finalized.Text)
	})

	t.Run("manual_fetch", func(t *testing.T) {
		fetcher := &recordingFetcher{text: "fetched text"}
		finalized, err := Details{Congress: "19", Number: "SBN 12"}.Finalize(ctx, fetcher, "")
		require.NoError(t, err)

		require.Len(t, fetcher.queries, 1)
		assert.Equal(t, billtext.Query{Congress: "19", BillNumber: "SBN 12"}, fetcher.queries[0])
		assert.Equal(t, "fetched text", finalized.Text)
		assert.Equal(t, "Senate Bill SBN 12 (19)", finalized.Title)
	})

	t.Run("manual_unknown_chamber_title", func(t *testing.T) {
		finalized, err := Details{Congress: "19", Number: "1234"}.Finalize(ctx, &recordingFetcher{text: "x"}, "")
		require.NoError(t, err)
		assert.Equal(t, "Bill 1234 (19)", finalized.Title)
	})

	t.Run("keyword_without_number", func(t *testing.T) {
		fetcher := &recordingFetcher{text: "keyword text"}
		finalized, err := Details{}.Finalize(ctx, fetcher, "crypto")
		require.NoError(t, err)

		require.Len(t, fetcher.queries, 1)
		assert.Equal(t, billtext.Query{Congress: "N/A", BillNumber: "KeywordSearch", Keyword: "crypto"}, fetcher.queries[0])
		assert.Equal(t, `Bill matching "crypto" (Keyword: crypto)`, finalized.Title)
		assert.Equal(t, ChamberUnknown, finalized.Chamber)
	})

	t.Run("keyword_with_number", func(t *testing.T) {
		finalized, err := Details{Congress: "19", Number: "HB 7"}.Finalize(ctx, &recordingFetcher{text: "x"}, "crypto")
		require.NoError(t, err)
		assert.Equal(t, `Bill matching "crypto" (HB 7, 19)`, finalized.Title)
		assert.Equal(t, ChamberHouse, finalized.Chamber)
	})

	t.Run("keyword_number_without_congress", func(t *testing.T) {
		finalized, err := Details{Number: "HB 7"}.Finalize(ctx, &recordingFetcher{text: "x"}, "crypto")
		require.NoError(t, err)
		assert.Equal(t, `Bill matching "crypto" (HB 7)`, finalized.Title)
	})

	t.Run("keyword_with_quotes_kept_literal", func(t *testing.T) {
		finalized, err := Details{}.Finalize(ctx, &recordingFetcher{text: "x"}, `say "hi" \ bye`)
		require.NoError(t, err)
		assert.Equal(t, `Bill matching "say "hi" \ bye" (Keyword: say "hi" \ bye)`, finalized.Title)
	})

	t.Run("fetch_error", func(t *testing.T) {
		fetchErr := errors.New("upstream down")
		_, err := Details{Congress: "19", Number: "HB 1"}.Finalize(ctx, &recordingFetcher{err: fetchErr}, "")
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("no_text", func(t *testing.T) {
		_, err := Details{Congress: "19"}.Finalize(ctx, &recordingFetcher{}, "")
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("mock_source", func(t *testing.T) {
		finalized, err := Details{Congress: "19", Number: "SBN 3"}.Finalize(ctx, billtext.NewMockSource(), "")
		require.NoError(t, err)
		assert.Contains(t, finalized.Text, "Mock data for 19, Bill SBN 3")
	})
}
