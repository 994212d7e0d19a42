// Package analysis orchestrates one analysis request: it reconciles the bill
// inputs, picks a plan (detailed, comparison or summary), runs the flows and
// renders citation links for every output field.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/bill"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/flows"
)

// Plan is the kind of analysis performed for a request.
type Plan string

const (
	// PlanDetailed runs the seven-part SEC analysis on bill 1 alone.
	PlanDetailed Plan = "detailed"
	// PlanComparison summarizes and compares bill 1 and bill 2.
	PlanComparison Plan = "comparison"
	// PlanSummary summarizes bill 1, used for keyword searches.
	PlanSummary Plan = "summary"
)

// ErrNoInput is returned when neither bill 1 nor a keyword is provided.
var ErrNoInput = errors.New("please provide bill 1 details or a keyword")

// Flows is the set of AI flows a Processor runs. *flows.Runner implements it.
type Flows interface {
	SummarizeBill(ctx context.Context, input flows.SummarizeInput) (*flows.SummarizeOutput, error)
	CompareBills(ctx context.Context, input flows.CompareInput) (*flows.CompareOutput, error)
	DetailedSECAnalysis(ctx context.Context, input flows.DetailedInput) (*flows.DetailedOutput, error)
	AssessRegulatoryImpact(ctx context.Context, input flows.AssessInput) (*flows.AssessOutput, error)
}

// Observer receives per-request outcomes, typically the metrics collector.
type Observer interface {
	ObserveAnalysis(plan string, err error)
	ObserveCitation(kind string, linked bool)
}

// Request is one analysis request. Bill2 is ignored when Keyword is set.
type Request struct {
	Bill1   bill.Details `json:"bill1"`
	Bill2   bill.Details `json:"bill2"`
	Keyword string       `json:"keyword,omitempty"`

	// AssessImpact adds a regulatory impact assessment of the comparison.
	AssessImpact bool `json:"assessImpact,omitempty"`
}

// Comments are the editable draft SEC comments for each bill.
type Comments struct {
	Bill1 string `json:"bill1"`
	Bill2 string `json:"bill2"`
}

// Result is the outcome of Process.
type Result struct {
	ID        string        `json:"id"`
	Plan      Plan          `json:"plan"`
	Keyword   string        `json:"keyword,omitempty"`
	Bill1     bill.Details  `json:"bill1"`
	Bill2     *bill.Details `json:"bill2,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`

	Bill1Summary *flows.SummarizeOutput `json:"bill1Summary,omitempty"`
	Bill2Summary *flows.SummarizeOutput `json:"bill2Summary,omitempty"`
	Comparison   *flows.CompareOutput   `json:"comparison,omitempty"`
	Detailed     *flows.DetailedOutput  `json:"detailed,omitempty"`
	Assessment   *flows.AssessOutput    `json:"assessment,omitempty"`
	Comments     Comments               `json:"comments"`

	// Links holds the rendered spans of every output field, keyed like
	// "comparison.similarities" or
	// "detailed.part2ExecutiveSummary.significantChangesOrNewMechanisms.0".
	Links map[string][]citation.Span `json:"links"`
}

// CongressHint is the session used to link House and Senate citations.
func (r *Result) CongressHint() string {
	return r.Bill1.Congress
}

// Processor runs analysis requests.
type Processor struct {
	flows    Flows
	fetcher  billtext.Fetcher
	renderer *citation.Renderer
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRenderer sets the citation renderer.
func WithRenderer(renderer *citation.Renderer) Option {
	return func(p *Processor) {
		p.renderer = renderer
	}
}

// WithObserver sets the observer.
func WithObserver(observer Observer) Option {
	return func(p *Processor) {
		p.observer = observer
	}
}

// NewProcessor creates a processor that fetches bill text from fetcher.
func NewProcessor(runner Flows, fetcher billtext.Fetcher, opts ...Option) *Processor {
	p := &Processor{
		flows:    runner,
		fetcher:  fetcher,
		renderer: citation.DefaultRenderer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates and finalizes the bills, then runs the selected plan.
func (p *Processor) Process(ctx context.Context, req Request) (result *Result, err error) {
	keyword := strings.TrimSpace(req.Keyword)
	if !req.Bill1.Provided() && keyword == "" {
		return nil, ErrNoInput
	}

	id := uuid.New().String()
	logger := p.logger.With(zap.String("analysis_id", id))
	plan := Plan("")
	defer func() {
		if p.observer != nil && plan != "" {
			p.observer.ObserveAnalysis(string(plan), err)
		}
	}()

	bill1, err := req.Bill1.Finalize(ctx, p.fetcher, keyword)
	if err != nil {
		return nil, fmt.Errorf("bill 1: %w", err)
	}
	logger.Debug("bill 1 finalized", zap.String("title", bill1.Title), zap.String("mode", string(req.Bill1.Mode())))

	var bill2 *bill.Details
	if keyword == "" && req.Bill2.Provided() {
		finalized, err := req.Bill2.Finalize(ctx, p.fetcher, "")
		if err != nil {
			return nil, fmt.Errorf("bill 2: %w", err)
		}
		bill2 = &finalized
		logger.Debug("bill 2 finalized", zap.String("title", bill2.Title), zap.String("mode", string(req.Bill2.Mode())))
	}

	plan = selectPlan(bill2 != nil, keyword)
	logger.Info("running analysis", zap.String("plan", string(plan)))

	result = &Result{
		ID:        id,
		Plan:      plan,
		Keyword:   keyword,
		Bill1:     bill1,
		Bill2:     bill2,
		CreatedAt: p.now().UTC(),
	}

	switch plan {
	case PlanDetailed:
		err = p.runDetailed(ctx, result)
	case PlanComparison:
		err = p.runComparison(ctx, result, req.AssessImpact)
	default:
		err = p.runSummary(ctx, result)
	}
	if err != nil {
		logger.Warn("analysis failed", zap.String("plan", string(plan)), zap.Error(err))
		return nil, err
	}

	p.renderLinks(result)
	logger.Info("analysis complete", zap.String("plan", string(plan)), zap.Int("linked_fields", len(result.Links)))
	return result, nil
}

func selectPlan(hasBill2 bool, keyword string) Plan {
	switch {
	case keyword != "":
		return PlanSummary
	case hasBill2:
		return PlanComparison
	default:
		return PlanDetailed
	}
}

func (p *Processor) runDetailed(ctx context.Context, result *Result) error {
	bill1 := result.Bill1

	title := bill1.Title
	if title == "" {
		number := bill1.Number
		if number == "" {
			number = billtext.Unspecified
		}
		title = "Bill " + number
	}

	detailed, err := p.flows.DetailedSECAnalysis(ctx, flows.DetailedInput{
		BillText:           bill1.Text,
		BillTitle:          title,
		BillNumber:         bill1.Number,
		LegislativeChamber: bill1.Chamber.String(),
	})
	if err != nil {
		return err
	}

	result.Detailed = detailed
	if objectives := detailed.Part2ExecutiveSummary.MainObjectivesAndKeyProvisions; objectives != "" {
		result.Bill1Summary = &flows.SummarizeOutput{Summary: objectives}
	}
	return nil
}

func (p *Processor) runComparison(ctx context.Context, result *Result, assessImpact bool) error {
	summary1, err := p.summarize(ctx, result.Bill1)
	if err != nil {
		return err
	}
	result.Bill1Summary = summary1

	summary2, err := p.summarize(ctx, *result.Bill2)
	if err != nil {
		return err
	}
	result.Bill2Summary = summary2

	comparison, err := p.flows.CompareBills(ctx, flows.CompareInput{
		Bill1Summary: summary1.Summary,
		Bill2Summary: summary2.Summary,
	})
	if err != nil {
		return err
	}
	result.Comparison = comparison
	result.Comments = Comments{
		Bill1: comparison.RegulatoryImpactAssessmentBill1,
		Bill2: comparison.RegulatoryImpactAssessmentBill2,
	}

	if !assessImpact {
		return nil
	}
	assessment, err := p.flows.AssessRegulatoryImpact(ctx, flows.AssessInput{BillComparison: comparison.Text()})
	if err != nil {
		return err
	}
	result.Assessment = assessment
	return nil
}

func (p *Processor) runSummary(ctx context.Context, result *Result) error {
	summary, err := p.summarize(ctx, result.Bill1)
	if err != nil {
		return err
	}
	result.Bill1Summary = summary
	return nil
}

func (p *Processor) summarize(ctx context.Context, details bill.Details) (*flows.SummarizeOutput, error) {
	return p.flows.SummarizeBill(ctx, flows.SummarizeInput{
		BillText:       details.Text,
		CongressNumber: details.Congress,
		BillNumber:     details.Number,
	})
}

// Fields lists every output field of the result, keys prefixed with the
// output they belong to.
func (r *Result) Fields() []flows.Field {
	var fields []flows.Field
	add := func(prefix string, outputFields []flows.Field) {
		for _, field := range outputFields {
			field.Key = prefix + "." + field.Key
			fields = append(fields, field)
		}
	}

	if r.Bill1Summary != nil {
		add("bill1Summary", r.Bill1Summary.Fields())
	}
	if r.Bill2Summary != nil {
		add("bill2Summary", r.Bill2Summary.Fields())
	}
	if r.Comparison != nil {
		add("comparison", r.Comparison.Fields())
		add("comparison", r.Comparison.CommentFields())
	}
	if r.Detailed != nil {
		add("detailed", r.Detailed.Fields())
	}
	if r.Assessment != nil {
		add("assessment", r.Assessment.Fields())
	}
	return fields
}

// renderLinks fills result.Links. List fields get one entry per item,
// suffixed with the item index.
func (p *Processor) renderLinks(result *Result) {
	hint := result.CongressHint()
	links := make(map[string][]citation.Span)

	render := func(key, text string) {
		if text == "" {
			return
		}
		citations := p.renderer.Annotate(text, hint)
		if p.observer != nil {
			for _, c := range citations {
				p.observer.ObserveCitation(c.Kind.String(), c.Linked())
			}
		}
		links[key] = citation.Spans(text, citations)
	}

	for _, field := range result.Fields() {
		if field.Items != nil {
			for index, item := range field.Items {
				render(field.Key+"."+strconv.Itoa(index), item)
			}
			continue
		}
		render(field.Key, field.Text)
	}
	result.Links = links
}
