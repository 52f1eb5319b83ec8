package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/flemzord/github-compliance-sub000/internal/runner"
)

// ConsoleSink prints a human-readable run summary: one status line per
// repository, the findings behind each non-compliant one, and the totals.
type ConsoleSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{writer: w}
}

func (s *ConsoleSink) Write(report *runner.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report == nil {
		return fmt.Errorf("report is nil")
	}

	bold := color.New(color.Bold)
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	fixed := color.New(color.FgCyan)
	errored := color.New(color.FgYellow)

	title := "Compliance Run"
	if report.Organization != "" {
		title = fmt.Sprintf("Compliance Run — %s", report.Organization)
	}
	if report.DryRun {
		title += " (dry run)"
	}
	if _, err := bold.Fprintln(s.writer, title); err != nil {
		return err
	}

	for _, rr := range report.Repositories {
		status := pass.Sprint("PASS")
		switch {
		case rr.ChecksError > 0:
			status = errored.Sprint("ERROR")
		case !rr.Compliant:
			status = fail.Sprint("FAIL")
		case rr.ChecksFixed > 0:
			status = fixed.Sprint("FIXED")
		}
		if _, err := fmt.Fprintf(s.writer, "[%s] %s (%d checks)\n", status, rr.Repository, rr.ChecksRun); err != nil {
			return err
		}
		for _, exec := range rr.Checks {
			if exec.Result != nil && exec.Result.Compliant && exec.Error == "" {
				continue
			}
			detail := exec.Error
			if detail == "" && exec.Result != nil {
				detail = exec.Result.Message
			}
			if _, err := fmt.Fprintf(s.writer, "    %s: %s\n", exec.CheckName, detail); err != nil {
				return err
			}
			if exec.Result == nil {
				continue
			}
			if needed, ok := exec.Result.Details["actions_needed"].([]string); ok {
				for _, action := range needed {
					if _, err := fmt.Fprintf(s.writer, "      - %s\n", action); err != nil {
						return err
					}
				}
			}
		}
	}

	_, err := fmt.Fprintf(s.writer,
		"\n%d repositories: %s compliant, %s non-compliant, %s fixed, %s errored (%d%% compliance)\n",
		report.TotalRepositories,
		pass.Sprint(report.CompliantRepositories),
		fail.Sprint(report.NonCompliantRepositories),
		fixed.Sprint(report.FixedRepositories),
		errored.Sprint(report.ErrorRepositories),
		report.CompliancePercentage,
	)
	return err
}

func (s *ConsoleSink) Close() error {
	return nil
}
