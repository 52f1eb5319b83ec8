package runner

import (
	"time"

	"github.com/flemzord/github-compliance-sub000/internal/checks"
)

// CheckExecution is the outcome of one check against one repository.
type CheckExecution struct {
	CheckName  string         `json:"check_name"`
	Repository string         `json:"repository"`
	Result     *checks.Result `json:"result"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// RepositoryReport aggregates every check executed against one repository.
type RepositoryReport struct {
	Repository   string           `json:"repository"`
	Private      bool             `json:"private"`
	Archived     bool             `json:"archived"`
	Compliant    bool             `json:"compliant"`
	ChecksRun    int              `json:"checks_run"`
	ChecksPassed int              `json:"checks_passed"`
	ChecksFailed int              `json:"checks_failed"`
	ChecksFixed  int              `json:"checks_fixed"`
	ChecksError  int              `json:"checks_errored"`
	Checks       []CheckExecution `json:"checks"`
}

// Report is the result of a full compliance run.
type Report struct {
	RunID                    string             `json:"run_id"`
	Organization             string             `json:"organization,omitempty"`
	DryRun                   bool               `json:"dry_run"`
	TotalRepositories        int                `json:"total_repositories"`
	CompliantRepositories    int                `json:"compliant_repositories"`
	NonCompliantRepositories int                `json:"non_compliant_repositories"`
	FixedRepositories        int                `json:"fixed_repositories"`
	ErrorRepositories        int                `json:"error_repositories"`
	CompliancePercentage     int                `json:"compliance_percentage"`
	Repositories             []RepositoryReport `json:"repositories"`
	ExecutionTimeMS          int64              `json:"execution_time_ms"`
	Timestamp                time.Time          `json:"timestamp"`
}

// HasFindings reports whether any repository ended the run non-compliant.
func (r *Report) HasFindings() bool {
	return r.NonCompliantRepositories > 0
}

// HasErrors reports whether any check errored during the run.
func (r *Report) HasErrors() bool {
	return r.ErrorRepositories > 0
}
