package output

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/github-compliance-sub000/internal/runner"
)

// MarkdownSink renders the run as a markdown report suitable for posting to
// a pull request or pasting into an issue.
type MarkdownSink struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func NewMarkdownSink(path string) (*MarkdownSink, error) {
	f, err := createReportFile(path)
	if err != nil {
		return nil, err
	}
	return &MarkdownSink{path: path, file: f}, nil
}

func (s *MarkdownSink) Write(report *runner.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report == nil {
		return fmt.Errorf("report is nil")
	}
	_, err := s.file.WriteString(renderMarkdown(report))
	return err
}

func (s *MarkdownSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func renderMarkdown(report *runner.Report) string {
	var b strings.Builder

	b.WriteString("# Compliance Report\n\n")
	if report.Organization != "" {
		fmt.Fprintf(&b, "Organization: **%s**\n\n", report.Organization)
	}
	if report.DryRun {
		b.WriteString("_Dry run: no remediation was applied._\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Repositories scanned | %d |\n", report.TotalRepositories)
	fmt.Fprintf(&b, "| Compliant | %d |\n", report.CompliantRepositories)
	fmt.Fprintf(&b, "| Non-compliant | %d |\n", report.NonCompliantRepositories)
	fmt.Fprintf(&b, "| Fixed | %d |\n", report.FixedRepositories)
	fmt.Fprintf(&b, "| Errored | %d |\n", report.ErrorRepositories)
	fmt.Fprintf(&b, "| Compliance | %d%% |\n", report.CompliancePercentage)
	fmt.Fprintf(&b, "| Execution time | %s |\n", (time.Duration(report.ExecutionTimeMS) * time.Millisecond).String())
	fmt.Fprintf(&b, "| Run ID | `%s` |\n\n", report.RunID)

	var findings []runner.RepositoryReport
	for _, rr := range report.Repositories {
		if !rr.Compliant || rr.ChecksFixed > 0 {
			findings = append(findings, rr)
		}
	}
	if len(findings) == 0 {
		b.WriteString("All repositories are compliant. 🎉\n")
		return b.String()
	}

	b.WriteString("## Findings\n\n")
	for _, rr := range findings {
		fmt.Fprintf(&b, "### %s\n\n", rr.Repository)
		for _, exec := range rr.Checks {
			if exec.Result != nil && exec.Result.Compliant && !exec.Result.Fixed && exec.Error == "" {
				continue
			}
			switch {
			case exec.Error != "":
				fmt.Fprintf(&b, "- ⚠️ `%s`: %s\n", exec.CheckName, exec.Error)
			case exec.Result == nil:
				continue
			case exec.Result.Error != "":
				fmt.Fprintf(&b, "- ⚠️ `%s`: %s\n", exec.CheckName, exec.Result.Error)
			case exec.Result.Fixed:
				fmt.Fprintf(&b, "- 🔧 `%s`: %s\n", exec.CheckName, exec.Result.Message)
			default:
				fmt.Fprintf(&b, "- ❌ `%s`: %s\n", exec.CheckName, exec.Result.Message)
				if needed, ok := exec.Result.Details["actions_needed"].([]string); ok {
					for _, action := range needed {
						fmt.Fprintf(&b, "  - %s\n", action)
					}
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
