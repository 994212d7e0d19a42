package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/flows"
	"github.com/coolbeans/legiscompare/pkg/llm"
	"github.com/coolbeans/legiscompare/pkg/metrics"
)

type notFoundFetcher struct{}

func (notFoundFetcher) FetchBillText(context.Context, billtext.Query) (string, error) {
	return "", billtext.ErrNotFound
}

func newTestServer(t *testing.T, responder llm.ResponderFunc, opts ...Option) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	if responder == nil {
		responder = flows.DemoResponder()
	}
	fetcher := billtext.NewMockSource()
	processor := analysis.NewProcessor(flows.NewRunner(llm.NewStaticResponder(responder)), fetcher)
	collector := metrics.NewCollector(metrics.DefaultNamespace)

	opts = append([]Option{WithMetrics(collector)}, opts...)
	ts := httptest.NewServer(New(processor, fetcher, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts, collector
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestFetchBillData(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/fetch-bill-data?congress=19th&billNumber=HB4664")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["billText"], "(Mock data for 19th, Bill HB4664)")
}

func TestFetchBillDataDefaultsMissingParams(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/fetch-bill-data")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["billText"], "(Mock data for N/A, Bill N/A)")
}

func TestFetchBillDataNotFound(t *testing.T) {
	processor := analysis.NewProcessor(flows.NewRunner(llm.NewStaticResponder(flows.DemoResponder())), notFoundFetcher{})
	ts := httptest.NewServer(New(processor, notFoundFetcher{}).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/fetch-bill-data?congress=19th&billNumber=HB1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, billtext.ErrNotFound.Error(), body.Error)
}

func TestProcessDetailed(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/process", map[string]any{
		"bill1": map[string]any{"congress": "19th", "number": "HB4664"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, analysis.PlanDetailed, result.Plan)
	assert.Equal(t, "House Bill HB4664 (19th)", result.Bill1.Title)
	require.NotNil(t, result.Detailed)
	assert.NotEmpty(t, result.Links["detailed.part1BillIdentification.fullTitle"])
}

func TestProcessComparisonWithPastedAndPDF(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/process", map[string]any{
		"bill1": map[string]any{"isPasted": true, "text": "AN ACT AMENDING REPUBLIC ACT NO. 8799"},
		"bill2": map[string]any{"fileName": "senate.pdf", "contentType": "application/pdf"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, analysis.PlanComparison, result.Plan)
	require.NotNil(t, result.Bill2)
	assert.Equal(t, "Uploaded PDF: senate.pdf", result.Bill2.Title)
	assert.NotEmpty(t, result.Comments.Bill1)
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name       string
		responder  llm.ResponderFunc
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed body",
			body:       `{"bill1":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "no input",
			body:       `{"bill1":{"congress":"19th"}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  analysis.ErrNoInput.Error(),
		},
		{
			name:       "not a pdf",
			body:       `{"bill1":{"fileName":"notes.docx","contentType":"application/msword"}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "please select a PDF file",
		},
		{
			name:       "file without content type",
			body:       `{"bill1":{"fileName":"bill.pdf"}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  `bill1.contentType failed on "required_with"`,
		},
		{
			name:       "keyword too long",
			body:       `{"keyword":"` + strings.Repeat("k", 201) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  `keyword failed on "max"`,
		},
		{
			name: "ai failure",
			responder: func(context.Context, llm.Request) (string, error) {
				return "I cannot help with that.", nil
			},
			body:       `{"bill1":{"congress":"19th","number":"HB1"}}`,
			wantStatus: http.StatusBadGateway,
			wantError:  flows.ErrNoStructuredOutput.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.responder)

			resp, err := http.Post(ts.URL+"/api/process", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body errorResponse
			decodeBody(t, resp, &body)
			assert.Contains(t, body.Error, tt.wantError)
		})
	}
}

func TestLinks(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/links", linksRequest{
		Text:     "See House Bill No. 4664 and RA 8799.",
		Congress: "19th Congress",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Spans []struct {
			Type string `json:"type"`
			Text string `json:"text"`
			URL  string `json:"url"`
		} `json:"spans"`
		Citations []map[string]any `json:"citations"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.Citations, 2)
	require.Len(t, body.Spans, 5)
	assert.Equal(t, "link", body.Spans[1].Type)
	assert.Equal(t, "House Bill No. 4664", body.Spans[1].Text)
	assert.Equal(t, "https://docs.congress.hrep.online/legisdocs/basic_19/HB4664.pdf", body.Spans[1].URL)
	assert.Equal(t, "text", body.Spans[2].Type)
}

func TestLinksRequiresText(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/links", map[string]string{"congress": "19th"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Error, `text failed on "required"`)
}

func TestCheckLinksWithoutLinkedCitations(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	// No congress, so the House citation has no URL and nothing is requested.
	resp := postJSON(t, ts.URL+"/api/links/check", linksRequest{Text: "House Bill No. 4664"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, float64(0), body["total"])
}

func TestExportComment(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/export-comment", exportCommentRequest{
		Comment:   "The Commission recommends...",
		BillTitle: "House Bill HB4664 (19th)",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="SEC_Comment_House_Bill_HB4664__19th_.txt"`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "The Commission recommends...", string(body))
}

func TestExportCommentEmpty(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/export-comment", exportCommentRequest{Comment: "   ", BillTitle: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "there is no comment to export", body.Error)
}

func TestRenderReport(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	processResp := postJSON(t, ts.URL+"/api/process", map[string]any{
		"bill1": map[string]any{"congress": "19th", "number": "HB4664"},
	})
	require.Equal(t, http.StatusOK, processResp.StatusCode)
	var result map[string]any
	decodeBody(t, processResp, &result)

	resp := postJSON(t, ts.URL+"/api/report", map[string]any{"result": result, "format": "html"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>Detailed SEC Analysis: House Bill HB4664 (19th)</h1>")
	assert.Contains(t, string(body), `rel="noopener noreferrer"`)
}

func TestRenderReportRequiresResult(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/report", map[string]any{"format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `legiscompare_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, nil, WithAllowedOrigins([]string{"http://localhost:3000"}))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/process", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{analysis.ErrNoInput, http.StatusBadRequest},
		{flows.ErrInvalidInput, http.StatusBadRequest},
		{billtext.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{flows.ErrNoStructuredOutput, http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRejectsNonJSONBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	body := `{"result":{"plan":"summary"},"format":"html"}`
	resp, err := http.Post(ts.URL+"/api/report", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
