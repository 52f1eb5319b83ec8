package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/flemzord/github-compliance-sub000/internal/cache"
	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/flemzord/github-compliance-sub000/internal/gh"
	"github.com/flemzord/github-compliance-sub000/internal/output"
	"github.com/flemzord/github-compliance-sub000/internal/runner"
	"github.com/spf13/cobra"
)

type runFlags struct {
	configPath      string
	org             string
	token           string
	repos           []string
	checks          []string
	dryRun          bool
	includeArchived bool
	concurrency     int
	timeout         time.Duration
	out             string
	report          string
	noConsole       bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compliance checks against every repository in scope",
	Long: `Run the compliance checks against every repository in scope and remediate
the drift they find.

Authentication:
  A GitHub access token is resolved from (in order) the --token flag, the
  GITHUB_TOKEN environment variable, and GitHub CLI authentication
  ('gh auth token', if the gh CLI is installed and logged in).

Output:
	By default a colored summary is printed to stdout. Structured outputs:
	- --out:    write the full run report as JSON to a file
	- --report: write a markdown report to a file
	- --no-console: suppress the console summary (use with --out/--report)

Exit codes:
	0 = every repository compliant (dry runs always exit 0)
	1 = non-compliant repositories remain
	2 = some checks errored
	3 = fatal error (the run did not complete)

Examples:
  # Preview only
  export GITHUB_TOKEN="<your_token>"
  github-compliance run --config compliance.yaml --dry-run

  # Remediate two specific repositories
  github-compliance run --config compliance.yaml --repos api,web

  # Only branch protection, machine-readable report
  github-compliance run --config compliance.yaml --checks branch-protection --no-console --out report.json`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCompliance(cmd.Context()))
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.configPath, "config", "c", "compliance.yaml", "Path to the YAML policy document")
	runCmd.Flags().StringVar(&runOpts.org, "org", "", "Override the organization declared in the policy document")
	runCmd.Flags().StringVar(&runOpts.token, "token", "", "GitHub access token (overrides GITHUB_TOKEN and gh auth)")
	runCmd.Flags().StringSliceVar(&runOpts.repos, "repos", nil, "Restrict the run to these repository names (exact match)")
	runCmd.Flags().StringSliceVar(&runOpts.checks, "checks", nil, "Restrict the run to these checks (default: all)")
	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false, "Evaluate checks without applying any remediation")
	runCmd.Flags().BoolVar(&runOpts.includeArchived, "include-archived", false, "Include archived repositories")
	runCmd.Flags().IntVar(&runOpts.concurrency, "concurrency", runner.DefaultConcurrency, "Maximum repositories processed concurrently")
	runCmd.Flags().DurationVar(&runOpts.timeout, "timeout", 0, "Abort the run after this duration (0 = no timeout)")
	runCmd.Flags().StringVar(&runOpts.out, "out", "", "Write the full run report as JSON to this file")
	runCmd.Flags().StringVar(&runOpts.report, "report", "", "Write a markdown report to this file")
	runCmd.Flags().BoolVar(&runOpts.noConsole, "no-console", false, "Suppress the console summary")

	rootCmd.AddCommand(runCmd)
}

func runCompliance(ctx context.Context) int {
	fatalf := func(format string, args ...any) int {
		fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
		return 3
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if runOpts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runOpts.timeout)
		defer cancel()
	}

	cfg, err := config.Load(runOpts.configPath)
	if err != nil {
		return fatalf("%v", err)
	}
	if runOpts.org != "" {
		cfg.Organization = runOpts.org
	}

	token, _, err := gh.ResolveToken(ctx, runOpts.token)
	if err != nil {
		return fatalf("failed to resolve GitHub auth token: %v", err)
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(os.Stderr, "Error: GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')")
		return 3
	}

	store := cache.New(cache.Config{
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.TTLDurations(),
	})
	client, err := gh.NewClient(ctx, token,
		gh.WithVerbose(verbose, nil),
		gh.WithCache(store),
		gh.WithOrganization(cfg.Organization),
	)
	if err != nil {
		return fatalf("failed to create GitHub client: %v", err)
	}

	r, err := runner.New(client, cfg, runner.Options{
		DryRun:          runOpts.dryRun,
		Checks:          runOpts.checks,
		IncludeArchived: runOpts.includeArchived,
		Repos:           runOpts.repos,
		Concurrency:     runOpts.concurrency,
	})
	if err != nil {
		return fatalf("%v", err)
	}

	sinks, err := buildSinks()
	if err != nil {
		return fatalf("%v", err)
	}

	report, err := r.Run(ctx)
	if err != nil {
		_ = sinks.Close()
		return fatalf("%v", err)
	}

	if err := sinks.Write(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if err := sinks.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return runner.ExitCode(report, runOpts.dryRun)
}

func buildSinks() (*output.Manager, error) {
	m := output.NewManager()
	if !runOpts.noConsole {
		if err := m.AddSink(output.NewConsoleSink(nil)); err != nil {
			return nil, err
		}
	}
	if runOpts.out != "" {
		js, err := output.NewJSONSink(runOpts.out)
		if err != nil {
			return nil, err
		}
		if err := m.AddSink(js); err != nil {
			return nil, err
		}
	}
	if runOpts.report != "" {
		ms, err := output.NewMarkdownSink(runOpts.report)
		if err != nil {
			return nil, err
		}
		if err := m.AddSink(ms); err != nil {
			return nil, err
		}
	}
	return m, nil
}
