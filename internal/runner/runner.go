// Package runner executes the registered checks against every repository in
// scope with a bounded worker pool and aggregates the outcome into a Report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/flemzord/github-compliance-sub000/internal/checks"
	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many repositories are processed at once.
const DefaultConcurrency = 5

// Options controls one compliance run.
type Options struct {
	// DryRun evaluates checks without applying remediation actions.
	DryRun bool
	// Checks restricts the run to the named checks; empty means all.
	Checks []string
	// IncludeArchived keeps archived repositories in scope.
	IncludeArchived bool
	// Repos restricts the run to exact repository names; empty means all.
	Repos []string
	// Concurrency bounds concurrent repositories; 0 means DefaultConcurrency.
	Concurrency int
}

type Runner struct {
	client checks.Forge
	config *config.ComplianceConfig
	checks []checks.Check
	opts   Options
}

func New(client checks.Forge, cfg *config.ComplianceConfig, opts Options) (*Runner, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be >= 0, got %d", opts.Concurrency)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}

	selected, err := checks.Select(opts.Checks)
	if err != nil {
		return nil, err
	}

	return &Runner{client: client, config: cfg, checks: selected, opts: opts}, nil
}

// Run executes the selected checks against every repository in scope.
//
// A repository listing failure aborts the run; every other failure is
// recorded on its CheckExecution and the run continues.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	repos, err := r.client.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	repos = r.filter(repos)

	report := &Report{
		RunID:        uuid.NewString(),
		Organization: r.config.Organization,
		DryRun:       r.opts.DryRun,
		Repositories: make([]RepositoryReport, len(repos)),
		Timestamp:    start.UTC(),
	}

	// One pre-allocated slot per repository: workers never share state.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			report.Repositories[i] = r.runRepository(gctx, repo)
			return nil
		})
	}
	_ = g.Wait()

	for i := range report.Repositories {
		rr := &report.Repositories[i]
		report.TotalRepositories++
		switch {
		case rr.ChecksError > 0:
			report.ErrorRepositories++
		case !rr.Compliant:
			report.NonCompliantRepositories++
		default:
			report.CompliantRepositories++
			if rr.ChecksFixed > 0 {
				report.FixedRepositories++
			}
		}
	}
	report.CompliancePercentage = compliancePercentage(report.CompliantRepositories, report.TotalRepositories)
	report.ExecutionTimeMS = time.Since(start).Milliseconds()
	return report, nil
}

// runRepository executes every selected check against one repository, in
// registration order, strictly sequentially.
func (r *Runner) runRepository(ctx context.Context, repo *github.Repository) RepositoryReport {
	rr := RepositoryReport{
		Repository: repo.GetName(),
		Private:    repo.GetPrivate(),
		Archived:   repo.GetArchived(),
	}

	for _, check := range r.checks {
		cc := &checks.Context{
			Client: r.client,
			Config: r.config,
			DryRun: r.opts.DryRun,
			Repo:   repo,
		}
		if !check.ShouldRun(ctx, cc) {
			continue
		}

		checkStart := time.Now()
		res, err := check.Fix(ctx, cc)
		exec := CheckExecution{
			CheckName:  check.Name(),
			Repository: repo.GetName(),
			Result:     &res,
			DurationMS: time.Since(checkStart).Milliseconds(),
		}
		if err != nil {
			exec.Error = err.Error()
		}

		rr.ChecksRun++
		switch {
		case err != nil || res.Error != "":
			rr.ChecksError++
		case res.Compliant && res.Fixed:
			rr.ChecksFixed++
		case res.Compliant:
			rr.ChecksPassed++
		default:
			rr.ChecksFailed++
		}
		rr.Checks = append(rr.Checks, exec)
	}

	rr.Compliant = rr.ChecksFailed == 0 && rr.ChecksError == 0
	return rr
}

func (r *Runner) filter(repos []*github.Repository) []*github.Repository {
	out := repos[:0:0]
	for _, repo := range repos {
		if repo.GetArchived() && !r.opts.IncludeArchived {
			continue
		}
		if len(r.opts.Repos) > 0 && !slices.Contains(r.opts.Repos, repo.GetName()) {
			continue
		}
		out = append(out, repo)
	}
	return out
}

func compliancePercentage(compliant, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(compliant) / float64(total)))
}

// ExitCode maps a completed run to the process exit code contract:
// 0 = clean, 1 = non-compliant repositories remain, 2 = check errors.
// Dry runs always exit 0 so CI previews don't fail on findings.
// (Fatal errors, where the run itself did not complete, exit 3 in the CLI.)
func ExitCode(report *Report, dryRun bool) int {
	if report == nil || dryRun {
		return 0
	}
	if report.HasErrors() {
		return 2
	}
	if report.HasFindings() {
		return 1
	}
	return 0
}
