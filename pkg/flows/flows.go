// Package flows runs the AI analysis flows over bill text: summary,
// comparison, detailed SEC analysis and regulatory impact assessment.
//
// Each flow renders its prompt, asks the Generator for JSON, then decodes
// and validates the reply against the flow's output type.
package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/llm"
)

var (
	// ErrNoStructuredOutput is returned when the model reply is empty, is not
	// JSON, or lacks required fields.
	ErrNoStructuredOutput = errors.New("the AI failed to return a structured output")

	// ErrInvalidInput is returned when a flow input fails validation.
	ErrInvalidInput = errors.New("invalid flow input")
)

// Observer receives the outcome of each flow run.
type Observer interface {
	ObserveFlow(flow string, err error, duration time.Duration)
}

// Runner executes flows against a Generator.
type Runner struct {
	generator   llm.Generator
	validate    *validator.Validate
	logger      *zap.Logger
	observer    Observer
	temperature *float64
	maxTokens   int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver sets the flow observer, typically the metrics collector.
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithTemperature sets the sampling temperature for every flow.
func WithTemperature(temperature float64) Option {
	return func(r *Runner) {
		r.temperature = llm.Float64(temperature)
	}
}

// WithMaxTokens caps the reply length for every flow.
func WithMaxTokens(maxTokens int) Option {
	return func(r *Runner) {
		r.maxTokens = maxTokens
	}
}

// NewRunner creates a runner.
func NewRunner(generator llm.Generator, opts ...Option) *Runner {
	r := &Runner{
		generator: generator,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SummarizeBill summarizes one bill.
func (r *Runner) SummarizeBill(ctx context.Context, input SummarizeInput) (*SummarizeOutput, error) {
	var output SummarizeOutput
	if err := r.run(ctx, PromptSummarizeBill, input, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// CompareBills compares two bill summaries.
func (r *Runner) CompareBills(ctx context.Context, input CompareInput) (*CompareOutput, error) {
	var output CompareOutput
	if err := r.run(ctx, PromptCompareBills, input, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// DetailedSECAnalysis produces the seven-part analysis of a single bill.
func (r *Runner) DetailedSECAnalysis(ctx context.Context, input DetailedInput) (*DetailedOutput, error) {
	var output DetailedOutput
	if err := r.run(ctx, PromptDetailedAnalysis, input, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// AssessRegulatoryImpact assesses a bill comparison against SEC regulations.
func (r *Runner) AssessRegulatoryImpact(ctx context.Context, input AssessInput) (*AssessOutput, error) {
	var output AssessOutput
	if err := r.run(ctx, PromptRegulatoryImpact, input, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

func (r *Runner) run(ctx context.Context, name string, input, output any) (err error) {
	started := time.Now()
	logger := r.logger.With(zap.String("flow", name))
	defer func() {
		if r.observer != nil {
			r.observer.ObserveFlow(name, err, time.Since(started))
		}
		if err != nil {
			logger.Warn("flow failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
			return
		}
		logger.Debug("flow completed", zap.Duration("duration", time.Since(started)))
	}()

	prompt, ok := GetPrompt(name)
	if !ok {
		return fmt.Errorf("unknown flow %q", name)
	}

	if err := r.validate.Struct(input); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidInput, prompt.Subject, err)
	}

	rendered, err := prompt.Render(input)
	if err != nil {
		return err
	}

	resp, err := r.generator.Generate(ctx, llm.Request{
		Name:        name,
		System:      prompt.System,
		Prompt:      rendered,
		JSONMode:    true,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", prompt.Subject, err)
	}
	logger.Debug("model replied",
		zap.String("request_id", resp.RequestID),
		zap.String("model", resp.Model),
		zap.Int("content_length", len(resp.Content)))

	return r.decode(prompt, resp.Content, output)
}

func (r *Runner) decode(prompt Prompt, content string, output any) error {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return fmt.Errorf("%w for %s: reply contains no JSON object", ErrNoStructuredOutput, prompt.Subject)
	}

	if err := json.Unmarshal([]byte(raw), output); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrNoStructuredOutput, prompt.Subject, err)
	}

	if err := r.validate.Struct(output); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrNoStructuredOutput, prompt.Subject, err)
	}
	return nil
}
