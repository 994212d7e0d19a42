package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/flows"
	"github.com/coolbeans/legiscompare/pkg/report"
	"github.com/coolbeans/legiscompare/pkg/server"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "legiscompare",
		Short: "AI-assisted legislative bill analysis",
		Long: `LegisCompare analyzes Philippine congressional bills for the
Securities and Exchange Commission.

It can:
  - Summarize and compare two bills
  - Produce a seven-part SEC analysis of a single bill
  - Assess the regulatory impact of a comparison and draft SEC comments
  - Link and verify legal citations found in the analysis`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("provider", "", "Override the LLM provider (gemini, openai, static)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(linksCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			serverConfig := a.config.Server
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				serverConfig.Addr = addr
			}

			srv := server.New(a.processor, a.fetcher,
				server.WithLogger(a.logger.Named("server")),
				server.WithMetrics(a.metrics),
				server.WithRenderer(a.renderer),
				server.WithChecker(a.checker),
				server.WithAllowedOrigins(serverConfig.AllowedOrigins))

			return srv.Run(cmd.Context(), serverConfig.Addr, serverConfig.ReadTimeout, serverConfig.WriteTimeout)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")

	return cmd
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the text of a bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			congress, _ := cmd.Flags().GetString("congress")
			number, _ := cmd.Flags().GetString("number")
			keyword, _ := cmd.Flags().GetString("keyword")

			query := billtext.Query{Congress: congress, BillNumber: number, Keyword: keyword}.WithDefaults()
			text, err := a.fetcher.FetchBillText(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().String("congress", "", "Congress (e.g. 19th)")
	cmd.Flags().String("number", "", "Bill number (e.g. HB 4664)")
	cmd.Flags().String("keyword", "", "Search keyword")

	return cmd
}

func analyzeCmd() *cobra.Command {
	var bill1, bill2 billFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one bill, or compare two",
		Long: `Analyze one bill, compare two bills, or summarize a keyword search.

With only bill 1, a seven-part SEC analysis is produced. With bill 2 as well,
both bills are summarized and compared. A keyword replaces both bills with a
summary of the matching bill text.`,
		Example: `  legiscompare analyze --congress1 19th --number1 "HB 4664"
  legiscompare analyze --keyword "crypto assets" --format html --output report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword, _ := cmd.Flags().GetString("keyword")
			return runAnalysis(cmd, &bill1, &bill2, keyword)
		},
	}

	bill1.register(cmd, "1", "bill 1")
	bill2.register(cmd, "2", "bill 2")
	cmd.Flags().String("keyword", "", "Search by keyword instead of bill details")
	addReportFlags(cmd)

	return cmd
}

func compareCmd() *cobra.Command {
	var bill1, bill2 billFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Summarize and compare two bills",
		Example: `  legiscompare compare --text1 hb4664.txt --text2 sb1234.txt --assess
  legiscompare compare --congress1 19th --number1 "HB 4664" --congress2 19th --number2 "SBN 1234" --export-comments comments/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, &bill1, &bill2, "")
		},
	}

	bill1.register(cmd, "1", "bill 1")
	bill2.register(cmd, "2", "bill 2")
	addReportFlags(cmd)

	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("assess", false, "Assess the regulatory impact of a comparison")
	cmd.Flags().StringP("format", "f", "markdown", "Output format (markdown, html, json, text)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file")
	cmd.Flags().String("export-comments", "", "Directory to write the draft SEC comments to")
}

// runAnalysis processes the bills and writes the report. The compare command
// passes no keyword and requires both bills.
func runAnalysis(cmd *cobra.Command, bill1, bill2 *billFlags, keyword string) error {
	assess, _ := cmd.Flags().GetBool("assess")
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	commentsDir, _ := cmd.Flags().GetString("export-comments")

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	details1, err := bill1.details(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("bill 1: %w", err)
	}
	details2, err := bill2.details(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("bill 2: %w", err)
	}
	if cmd.Name() == "compare" && (!details1.Provided() || !details2.Provided()) {
		return errors.New("compare needs details for both bills")
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.processor.Process(cmd.Context(), analysis.Request{
		Bill1:        details1,
		Bill2:        details2,
		Keyword:      keyword,
		AssessImpact: assess,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	output, err := report.Render(result, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), outputPath, output); err != nil {
		return err
	}

	if commentsDir != "" {
		return exportComments(result, commentsDir)
	}
	return nil
}

func summarizeCmd() *cobra.Command {
	var flags billFlags

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a single bill",
		Example: `  legiscompare summarize --congress 19th --number "HB 4664"
  legiscompare summarize --keyword "digital lending" --provider static`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword, _ := cmd.Flags().GetString("keyword")

			details, err := flags.details(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if !details.Provided() && keyword == "" {
				return analysis.ErrNoInput
			}

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			finalized, err := details.Finalize(cmd.Context(), a.fetcher, keyword)
			if err != nil {
				return err
			}

			output, err := a.runner.SummarizeBill(cmd.Context(), flows.SummarizeInput{
				BillText:       finalized.Text,
				CongressNumber: finalized.Congress,
				BillNumber:     finalized.Number,
			})
			if err != nil {
				return fmt.Errorf("summary failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, finalized.Title)
			fmt.Fprintln(out, strings.Repeat("=", len(finalized.Title)))
			fmt.Fprintln(out, output.Summary)
			printLinks(out, a.renderer.Annotate(output.Summary, finalized.Congress))
			return nil
		},
	}

	flags.register(cmd, "", "the bill")
	cmd.Flags().String("keyword", "", "Search by keyword instead of bill details")

	return cmd
}

func exportComments(result *analysis.Result, dir string) error {
	exports := report.ExportComments(result)
	if len(exports) == 0 {
		fmt.Fprintln(os.Stderr, "No draft comments to export")
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, export := range exports {
		path := filepath.Join(dir, export.Filename)
		if err := os.WriteFile(path, []byte(export.Body), 0644); err != nil {
			return fmt.Errorf("failed to write comment: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess [comparison-file]",
		Short: "Assess the regulatory impact of a bill comparison",
		Long: `Assess the regulatory impact of a bill comparison and draft a comment
for the SEC. The comparison is read from the file argument, or stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			comparison, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			output, err := a.runner.AssessRegulatoryImpact(cmd.Context(), flows.AssessInput{
				BillComparison: strings.TrimSpace(comparison),
			})
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Impact Assessment")
			fmt.Fprintln(out, strings.Repeat("=", 17))
			fmt.Fprintln(out, output.ImpactAssessment)
			printLinks(out, a.renderer.Annotate(output.ImpactAssessment, ""))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Draft Comment")
			fmt.Fprintln(out, strings.Repeat("=", 13))
			fmt.Fprintln(out, output.DraftComment)
			return nil
		},
	}

	return cmd
}

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [file]",
		Short: "Find legal citations in text and optionally verify their links",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			congress, _ := cmd.Flags().GetString("congress")
			check, _ := cmd.Flags().GetBool("check")
			formatName, _ := cmd.Flags().GetString("format")

			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			text, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			citations := a.renderer.Annotate(text, congress)
			out := cmd.OutOrStdout()

			if !check {
				fmt.Fprintf(out, "Found %d citations\n", len(citations))
				printLinks(out, citations)
				return nil
			}

			checkReport := a.checker.CheckCitations(cmd.Context(), citations)
			switch formatName {
			case "json":
				data, err := checkReport.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "markdown", "md":
				fmt.Fprint(out, checkReport.ToMarkdown())
			default:
				fmt.Fprint(out, checkReport.String())
			}
			return nil
		},
	}

	cmd.Flags().String("congress", "", "Congress used to link House and Senate bill citations")
	cmd.Flags().Bool("check", false, "Verify that each citation link resolves")
	cmd.Flags().StringP("format", "f", "text", "Check report format (text, markdown, json)")

	return cmd
}

func printLinks(w io.Writer, citations []citation.Citation) {
	for _, c := range citations {
		url := c.URL
		if url == "" {
			url = "(no link)"
		}
		fmt.Fprintf(w, "  [%s] %s -> %s\n", c.Kind, truncateString(c.RawText, 60), url)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "legiscompare %s\n", version)
		},
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
