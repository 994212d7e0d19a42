package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/bill"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/flows"
	"github.com/coolbeans/legiscompare/pkg/report"
)

const maxBodyBytes = 10 << 20

// billInput is one bill as submitted by the form.
type billInput struct {
	Congress    string `json:"congress" validate:"max=64"`
	Number      string `json:"number" validate:"max=64"`
	Text        string `json:"text" validate:"max=5000000"`
	IsPasted    bool   `json:"isPasted"`
	FileName    string `json:"fileName" validate:"max=255"`
	ContentType string `json:"contentType" validate:"required_with=FileName,max=128"`
}

// details applies the input modes in the form's precedence: a file, then
// pasted text, then congress and number.
func (b billInput) details() (bill.Details, error) {
	details := bill.Details{}.
		WithManualField(bill.FieldCongress, strings.TrimSpace(b.Congress)).
		WithManualField(bill.FieldNumber, strings.TrimSpace(b.Number))

	switch {
	case b.FileName != "":
		return details.WithPDF(b.FileName, b.ContentType)
	case b.IsPasted:
		return details.WithPastedText(b.Text), nil
	default:
		return details, nil
	}
}

type processRequest struct {
	Bill1        billInput `json:"bill1"`
	Bill2        billInput `json:"bill2"`
	Keyword      string    `json:"keyword" validate:"max=200"`
	AssessImpact bool      `json:"assessImpact"`
}

type linksRequest struct {
	Text     string `json:"text" validate:"required,max=5000000"`
	Congress string `json:"congress" validate:"max=64"`
}

type linksResponse struct {
	Spans     []citation.Span     `json:"spans"`
	Citations []citation.Citation `json:"citations"`
}

type reportRequest struct {
	Result *analysis.Result `json:"result" validate:"required"`
	Format string           `json:"format" validate:"omitempty,oneof=markdown md html json text txt"`
}

type exportCommentRequest struct {
	Comment   string `json:"comment"`
	BillTitle string `json:"billTitle" validate:"max=512"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fetchBillData handles GET /api/fetch-bill-data. Missing congress or bill
// number default to "N/A".
func (s *Server) fetchBillData(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := billtext.Query{
		Congress:   params.Get("congress"),
		BillNumber: params.Get("billNumber"),
		Keyword:    params.Get("keyword"),
	}.WithDefaults()

	text, err := s.fetcher.FetchBillText(r.Context(), query)
	if err != nil {
		s.logger.Warn("bill text fetch failed",
			zap.String("congress", query.Congress),
			zap.String("bill_number", query.BillNumber),
			zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"billText": text})
}

// process handles POST /api/process.
func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !s.decode(w, r, &req) {
		return
	}

	bill1, err := req.Bill1.details()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "bill 1: "+err.Error())
		return
	}
	bill2, err := req.Bill2.details()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "bill 2: "+err.Error())
		return
	}

	result, err := s.analyzer.Process(r.Context(), analysis.Request{
		Bill1:        bill1,
		Bill2:        bill2,
		Keyword:      req.Keyword,
		AssessImpact: req.AssessImpact,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// renderReport handles POST /api/report, rendering a previously returned
// result, possibly with edited comments.
func (s *Server) renderReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !s.decode(w, r, &req) {
		return
	}

	format := report.FormatMarkdown
	if req.Format != "" {
		parsed, err := report.ParseFormat(req.Format)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	body, err := report.Render(req.Result, format)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

var contentTypes = map[report.Format]string{
	report.FormatMarkdown: "text/markdown; charset=utf-8",
	report.FormatHTML:     "text/html; charset=utf-8",
	report.FormatJSON:     "application/json",
	report.FormatText:     "text/plain; charset=utf-8",
}

// links handles POST /api/links.
func (s *Server) links(w http.ResponseWriter, r *http.Request) {
	var req linksRequest
	if !s.decode(w, r, &req) {
		return
	}

	citations := s.annotate(req)
	s.respondJSON(w, http.StatusOK, linksResponse{
		Spans:     citation.Spans(req.Text, citations),
		Citations: citations,
	})
}

// checkLinks handles POST /api/links/check.
func (s *Server) checkLinks(w http.ResponseWriter, r *http.Request) {
	var req linksRequest
	if !s.decode(w, r, &req) {
		return
	}

	checkReport := s.checker.CheckCitations(r.Context(), s.annotate(req))
	s.respondJSON(w, http.StatusOK, checkReport)
}

func (s *Server) annotate(req linksRequest) []citation.Citation {
	citations := s.renderer.Annotate(req.Text, req.Congress)
	if s.metrics != nil {
		for _, c := range citations {
			s.metrics.ObserveCitation(c.Kind.String(), c.Linked())
		}
	}
	if citations == nil {
		citations = []citation.Citation{}
	}
	return citations
}

// exportComment handles POST /api/export-comment, returning the comment as a
// text file download.
func (s *Server) exportComment(w http.ResponseWriter, r *http.Request) {
	var req exportCommentRequest
	if !s.decode(w, r, &req) {
		return
	}

	export, err := report.ExportComment(req.Comment, req.BillTitle)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.Body))
}

// decode reads and validates a JSON body, writing a 400 response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes. Anything unrecognized
// is treated as an upstream AI failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNoInput),
		errors.Is(err, bill.ErrNotPDF),
		errors.Is(err, flows.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, billtext.ErrNotFound),
		errors.Is(err, bill.ErrNoText):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "validation failed: " + err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		if _, rest, found := strings.Cut(field, "."); found {
			field = rest
		}
		messages = append(messages, fmt.Sprintf("%s failed on %q", field, fieldError.Tag()))
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// jsonFieldName names validation errors after the JSON field.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
