package flows

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/legiscompare/pkg/llm"
)

type flowRun struct {
	flow string
	err  error
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []flowRun
}

func (o *recordingObserver) ObserveFlow(flow string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, flowRun{flow: flow, err: err})
}

func mustJSON(t *testing.T, value any) string {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return string(data)
}

func TestSummarizeBill(t *testing.T) {
	static := llm.NewStatic("```json\n{\"summary\": \"Amends RA 8799.\"}\n```")
	observer := &recordingObserver{}
	runner := NewRunner(static, WithObserver(observer), WithTemperature(0.3), WithMaxTokens(512))

	output, err := runner.SummarizeBill(context.Background(), SummarizeInput{
		BillText:       "AN ACT AMENDING REPUBLIC ACT NO. 8799",
		CongressNumber: "19th",
		BillNumber:     "HB4664",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amends RA 8799.", output.Summary)

	requests := static.Requests()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, PromptSummarizeBill, req.Name)
	assert.True(t, req.JSONMode)
	assert.Contains(t, req.Prompt, "Bill Text: AN ACT AMENDING REPUBLIC ACT NO. 8799")
	assert.Contains(t, req.Prompt, "Congress Number: 19th")
	assert.Contains(t, req.Prompt, "Bill Number: HB4664")
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.3, *req.Temperature)
	assert.Equal(t, 512, req.MaxTokens)

	require.Len(t, observer.runs, 1)
	assert.Equal(t, PromptSummarizeBill, observer.runs[0].flow)
	assert.NoError(t, observer.runs[0].err)
}

func TestCompareBills(t *testing.T) {
	want := CompareOutput{
		Similarities:                    "Both regulate offerings.",
		Differences:                     "Scope differs.",
		PotentialConflicts:              "Licensing overlaps.",
		RegulatoryImpactAssessmentBill1: "Impact on SRC rules.",
		RegulatoryImpactAssessmentBill2: "No significant SEC regulatory impact identified for Bill 2.",
	}
	static := llm.NewStatic(mustJSON(t, want))
	runner := NewRunner(static)

	output, err := runner.CompareBills(context.Background(), CompareInput{Bill1Summary: "one", Bill2Summary: "two"})
	require.NoError(t, err)
	assert.Equal(t, want, *output)

	prompt := static.Requests()[0].Prompt
	assert.Contains(t, prompt, "Bill 1 Summary: one")
	assert.Contains(t, prompt, "Bill 2 Summary: two")
}

func TestCompareOutputText(t *testing.T) {
	output := CompareOutput{Similarities: "S", Differences: "D", PotentialConflicts: "C"}
	assert.Equal(t, "Similarities:\nS\n\nDifferences:\nD\n\nPotential Conflicts:\nC", output.Text())
}

func TestAssessRegulatoryImpact(t *testing.T) {
	static := llm.NewStatic(`{"impactAssessment": "Moderate.", "draftComment": "The Commission notes..."}`)
	runner := NewRunner(static)

	output, err := runner.AssessRegulatoryImpact(context.Background(), AssessInput{BillComparison: "Similarities:\nS"})
	require.NoError(t, err)
	assert.Equal(t, "Moderate.", output.ImpactAssessment)
	assert.Equal(t, "The Commission notes...", output.DraftComment)
	assert.Contains(t, static.Requests()[0].Prompt, "Bill Comparison:\nSimilarities:\nS")
}

func TestDetailedSECAnalysis(t *testing.T) {
	static := llm.NewStatic(mustJSON(t, demoDetailed))
	runner := NewRunner(static)

	output, err := runner.DetailedSECAnalysis(context.Background(), DetailedInput{
		BillText:   "SECTION 1. Title.",
		BillTitle:  "House Bill HB4664 (19th)",
		BillNumber: "HB4664",
	})
	require.NoError(t, err)
	assert.Equal(t, demoDetailed, *output)

	req := static.Requests()[0]
	assert.Equal(t, secLawyerRole, req.System)
	assert.Contains(t, req.Prompt, `The bill's title is stated as: "House Bill HB4664 (19th)"`)
	assert.Contains(t, req.Prompt, "The bill number is stated as: HB4664.")
	assert.Contains(t, req.Prompt, "Identify the legislative chamber (House/Senate) based on the bill text or number.")
	assert.True(t, strings.HasSuffix(req.Prompt, "SECTION 1. Title.\n"))
}

func TestFlowStructuredOutputErrors(t *testing.T) {
	incomplete := demoDetailed
	incomplete.Part3RegulatoryImpactAndSECRelations.ProvisionsAffectingSEC = ""

	noQuestions := demoDetailed
	noQuestions.Part7RecommendationsAndFurtherQuestions.KeyQuestionsForSECInvestigation = nil

	tests := []struct {
		name    string
		content string
	}{
		{"empty reply", ""},
		{"prose only", "I am unable to analyze this bill."},
		{"wrong type", `{"part1BillIdentification": "HB 1"}`},
		{"missing nested field", mustJSON(t, incomplete)},
		{"empty list", mustJSON(t, noQuestions)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &recordingObserver{}
			runner := NewRunner(llm.NewStatic(tt.content), WithObserver(observer))

			_, err := runner.DetailedSECAnalysis(context.Background(), DetailedInput{BillText: "text"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoStructuredOutput)
			assert.Contains(t, err.Error(), "the AI failed to return a structured output for detailed bill analysis")

			require.Len(t, observer.runs, 1)
			assert.Error(t, observer.runs[0].err)
		})
	}
}

func TestFlowInvalidInput(t *testing.T) {
	static := llm.NewStatic(`{"summary":"unused"}`)
	runner := NewRunner(static)

	_, err := runner.SummarizeBill(context.Background(), SummarizeInput{BillNumber: "HB1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = runner.CompareBills(context.Background(), CompareInput{Bill1Summary: "only one"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, static.Requests(), "generator must not be called for invalid input")
}

func TestFlowGeneratorError(t *testing.T) {
	generatorErr := llm.NewFatalError(errors.New("quota exceeded"))
	runner := NewRunner(llm.NewStaticResponder(func(context.Context, llm.Request) (string, error) {
		return "", generatorErr
	}))

	_, err := runner.SummarizeBill(context.Background(), SummarizeInput{BillText: "text"})
	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Contains(t, err.Error(), "bill summary failed")
}

func TestDemoResponder(t *testing.T) {
	runner := NewRunner(llm.NewStaticResponder(DemoResponder()))
	ctx := context.Background()

	summary, err := runner.SummarizeBill(ctx, SummarizeInput{BillText: "text"})
	require.NoError(t, err)
	assert.Contains(t, summary.Summary, "Republic Act No. 8799")

	comparison, err := runner.CompareBills(ctx, CompareInput{Bill1Summary: "a", Bill2Summary: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, comparison.RegulatoryImpactAssessmentBill1)

	detailed, err := runner.DetailedSECAnalysis(ctx, DetailedInput{BillText: "text"})
	require.NoError(t, err)
	assert.Len(t, detailed.Part2ExecutiveSummary.SignificantChangesOrNewMechanisms, 3)

	assessment, err := runner.AssessRegulatoryImpact(ctx, AssessInput{BillComparison: comparison.Text()})
	require.NoError(t, err)
	assert.NotEmpty(t, assessment.DraftComment)

	_, err = DemoResponder()(ctx, llm.Request{Name: "unknown"})
	assert.True(t, llm.IsFatal(err))
}

func TestDetailedOutputFields(t *testing.T) {
	fields := demoDetailed.Fields()
	require.Len(t, fields, 25)

	keys := make(map[string]bool, len(fields))
	sections := make(map[string]bool)
	for _, field := range fields {
		assert.False(t, keys[field.Key], "duplicate key %s", field.Key)
		keys[field.Key] = true
		sections[field.Section] = true
		assert.NotEmpty(t, field.Label)
		assert.True(t, field.Text != "" || len(field.Items) > 0, "field %s is empty", field.Key)
	}
	assert.Len(t, sections, 7)
	assert.True(t, keys["part2ExecutiveSummary.significantChangesOrNewMechanisms"])
	assert.Equal(t, "part1BillIdentification.fullTitle", fields[0].Key)
}

func TestPromptRegistry(t *testing.T) {
	names := PromptNames()
	assert.Equal(t, []string{PromptCompareBills, PromptDetailedAnalysis, PromptRegulatoryImpact, PromptSummarizeBill}, names)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Len(t, Prompts(), 4)

	_, exists := GetPrompt("nonexistent-prompt")
	assert.False(t, exists)

	for _, name := range names {
		prompt, exists := GetPrompt(name)
		require.True(t, exists)
		assert.Equal(t, name, prompt.Name)
		assert.NotEmpty(t, prompt.Description, name)
		assert.NotEmpty(t, prompt.Subject, name)
		assert.NotEmpty(t, prompt.System, name)
		assert.NotEmpty(t, prompt.Parameters, name)
		assert.True(t, prompt.Parameters[0].Required, "%s: first parameter should be required", name)
	}
}

func TestPromptsRenderWithTheirInputs(t *testing.T) {
	inputs := map[string]any{
		PromptSummarizeBill:    SummarizeInput{BillText: "t"},
		PromptCompareBills:     CompareInput{Bill1Summary: "a", Bill2Summary: "b"},
		PromptDetailedAnalysis: DetailedInput{BillText: "t"},
		PromptRegulatoryImpact: AssessInput{BillComparison: "c"},
	}

	for name, input := range inputs {
		prompt, _ := GetPrompt(name)
		rendered, err := prompt.Render(input)
		require.NoError(t, err, name)
		assert.NotContains(t, rendered, "{{", name)
		assert.Contains(t, rendered, "JSON object", name)
	}

	prompt, _ := GetPrompt(PromptCompareBills)
	_, err := prompt.Render(SummarizeInput{BillText: "t"})
	assert.Error(t, err, "rendering with the wrong input type should fail")
}
