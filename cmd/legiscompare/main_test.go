package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/legiscompare/pkg/bill"
)

const staticConfig = `
log:
  level: error
llm:
  provider: static
billtext:
  source: mock
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// execute runs the CLI with a static-provider config file.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath := writeFile(t, t.TempDir(), "config.yaml", staticConfig)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--config", configPath))

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if output != "legiscompare "+version+"\n" {
		t.Errorf("output = %q", output)
	}
}

func TestLinksCommand(t *testing.T) {
	output, err := execute(t, "See House Bill No. 4664 and RA 8799.", "links", "--congress", "19th")
	if err != nil {
		t.Fatalf("links failed: %v", err)
	}

	expectations := []string{
		"Found 2 citations",
		"https://docs.congress.hrep.online/legisdocs/basic_19/HB4664.pdf",
		"https://www.officialgazette.gov.ph/republic-acts/republic-act-no-8799/",
	}
	for _, expected := range expectations {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing %q:\n%s", expected, output)
		}
	}
}

func TestLinksCommandWithoutSession(t *testing.T) {
	output, err := execute(t, "House Bill No. 4664", "links")
	if err != nil {
		t.Fatalf("links failed: %v", err)
	}
	if !strings.Contains(output, "(no link)") {
		t.Errorf("expected unlinked citation:\n%s", output)
	}
}

func TestFetchCommand(t *testing.T) {
	output, err := execute(t, "", "fetch", "--congress", "19th", "--number", "HB 4664")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !strings.Contains(output, "HB 4664") {
		t.Errorf("output should mention the bill number:\n%s", output)
	}
}

func TestAnalyzeDetailed(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, dir, "bill.txt", "AN ACT regulating digital asset offerings.")
	reportPath := filepath.Join(dir, "report.md")

	_, err := execute(t, "", "analyze", "--text1", textPath, "--output", reportPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	report := string(data)
	for _, expected := range []string{"# Detailed SEC Analysis: Pasted Bill Text", "Part 2: Executive Summary"} {
		if !strings.Contains(report, expected) {
			t.Errorf("report missing %q", expected)
		}
	}
}

func TestCompareExportsComments(t *testing.T) {
	dir := t.TempDir()
	commentsDir := filepath.Join(dir, "comments")

	output, err := execute(t, "AN ACT from stdin.",
		"compare",
		"--text1", "-",
		"--congress2", "19th", "--number2", "SBN 1234",
		"--format", "text",
		"--export-comments", commentsDir,
	)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(output, "Bill Comparison: Pasted Bill Text vs. Senate Bill SBN 1234 (19th)") {
		t.Errorf("unexpected report:\n%s", output)
	}

	entries, err := os.ReadDir(commentsDir)
	if err != nil {
		t.Fatalf("comments not exported: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 comment files, got %d", len(entries))
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "SEC_Comment_") {
			t.Errorf("unexpected file %s", entry.Name())
		}
	}
}

func TestCompareRequiresBothBills(t *testing.T) {
	_, err := execute(t, "", "compare", "--congress1", "19th", "--number1", "HB 4664")
	if err == nil || !strings.Contains(err.Error(), "both bills") {
		t.Errorf("expected missing bill error, got %v", err)
	}
}

func TestAssessCommand(t *testing.T) {
	output, err := execute(t, "Similarities: both regulate offerings.", "assess")
	if err != nil {
		t.Fatalf("assess failed: %v", err)
	}
	for _, expected := range []string{"Impact Assessment", "Draft Comment"} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing %q", expected)
		}
	}
}

func TestBillFlagsDetails(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, dir, "bill.txt", "pasted text")

	cases := []struct {
		name     string
		flags    billFlags
		wantMode bill.Mode
		wantErr  bool
	}{
		{"empty", billFlags{}, bill.ModeEmpty, false},
		{"manual", billFlags{congress: "19th", number: "HB 1"}, bill.ModeManual, false},
		{"pasted", billFlags{congress: "19th", textFile: textPath}, bill.ModePasted, false},
		{"pdf wins", billFlags{textFile: textPath, pdf: "/tmp/HB1.pdf"}, bill.ModePDF, false},
		{"not a pdf", billFlags{pdf: "notes.docx"}, "", true},
		{"missing file", billFlags{textFile: filepath.Join(dir, "missing.txt")}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details, err := tc.flags.details(strings.NewReader(""))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if details.Mode() != tc.wantMode {
				t.Errorf("Mode() = %s, want %s", details.Mode(), tc.wantMode)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("a much longer string", 10); got != "a much ..." {
		t.Errorf("got %q", got)
	}
}
