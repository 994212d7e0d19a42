package main

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/bill"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/config"
	"github.com/coolbeans/legiscompare/pkg/flows"
	"github.com/coolbeans/legiscompare/pkg/linkcheck"
	"github.com/coolbeans/legiscompare/pkg/llm"
	"github.com/coolbeans/legiscompare/pkg/metrics"
)

// app holds the wired components shared by the commands.
type app struct {
	config    *config.Config
	logger    *zap.Logger
	metrics   *metrics.Collector
	fetcher   billtext.Fetcher
	renderer  *citation.Renderer
	runner    *flows.Runner
	processor *analysis.Processor
	checker   *linkcheck.Checker
}

// newApp loads configuration from the persistent flags and wires the
// components. The generator is only built when needsLLM is set, so commands
// that never call a model work without an API key.
func newApp(cmd *cobra.Command, needsLLM bool) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	provider, _ := cmd.Flags().GetString("provider")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if provider != "" {
		cfg.LLM.Provider = strings.ToLower(provider)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}

	a := &app{
		config:   cfg,
		logger:   logger,
		metrics:  metrics.NewCollector(metrics.DefaultNamespace),
		fetcher:  cfg.BillText.Fetcher(),
		renderer: citation.NewRenderer(nil, cfg.Links.Linker()),
	}
	a.checker = linkcheck.NewChecker(cfg.Links.CheckerConfig(),
		linkcheck.WithLogger(logger.Named("linkcheck")),
		linkcheck.WithObserver(a.metrics))

	if !needsLLM {
		return a, nil
	}

	generator, err := a.newGenerator()
	if err != nil {
		return nil, err
	}

	runnerOpts := []flows.Option{
		flows.WithLogger(logger.Named("flows")),
		flows.WithObserver(a.metrics),
		flows.WithTemperature(cfg.LLM.Temperature),
	}
	if cfg.LLM.MaxTokens > 0 {
		runnerOpts = append(runnerOpts, flows.WithMaxTokens(cfg.LLM.MaxTokens))
	}
	a.runner = flows.NewRunner(generator, runnerOpts...)
	a.processor = analysis.NewProcessor(a.runner, a.fetcher,
		analysis.WithLogger(logger.Named("analysis")),
		analysis.WithRenderer(a.renderer),
		analysis.WithObserver(a.metrics))
	return a, nil
}

// newGenerator builds the model client. The static provider answers with
// canned demo output.
func (a *app) newGenerator() (llm.Generator, error) {
	llmConfig := a.config.LLM
	if llmConfig.Provider == llm.StaticProvider {
		a.logger.Info("using static demo generator")
		return llm.NewStaticResponder(flows.DemoResponder()), nil
	}
	if err := llmConfig.RequireAPIKey(); err != nil {
		return nil, err
	}

	retryConfig := llm.DefaultRetryConfig()
	retryConfig.MaxAttempts = llmConfig.MaxAttempts

	client, err := llm.NewClient(llmConfig.Endpoint(),
		llm.WithHTTPClient(&http.Client{Timeout: llmConfig.Timeout}),
		llm.WithRetryConfig(retryConfig),
		llm.WithLogger(a.logger.Named("llm")),
		llm.WithMetrics(a.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", llmConfig.Provider, err)
	}
	return client, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// billFlags are the command-line equivalents of one bill form.
type billFlags struct {
	congress string
	number   string
	textFile string
	pdf      string
}

func (b *billFlags) register(cmd *cobra.Command, suffix, label string) {
	cmd.Flags().StringVar(&b.congress, "congress"+suffix, "", "Congress of "+label+" (e.g. 19th)")
	cmd.Flags().StringVar(&b.number, "number"+suffix, "", "Bill number of "+label+" (e.g. HB 4664)")
	cmd.Flags().StringVar(&b.textFile, "text"+suffix, "", "File holding the pasted text of "+label+" (- for stdin)")
	cmd.Flags().StringVar(&b.pdf, "pdf"+suffix, "", "PDF file name for "+label)
}

// details applies the same precedence as the form: a PDF, then pasted
// text, then congress and number.
func (b *billFlags) details(stdin io.Reader) (bill.Details, error) {
	details := bill.Details{}.
		WithManualField(bill.FieldCongress, b.congress).
		WithManualField(bill.FieldNumber, b.number)

	switch {
	case b.pdf != "":
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(b.pdf)))
		return details.WithPDF(filepath.Base(b.pdf), contentType)
	case b.textFile != "":
		text, err := readInput(b.textFile, stdin)
		if err != nil {
			return bill.Details{}, err
		}
		return details.WithPastedText(text), nil
	default:
		return details, nil
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput writes to path, or to w when path is empty.
func writeOutput(w io.Writer, path, output string) error {
	if path == "" {
		_, err := fmt.Fprint(w, output)
		return err
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
