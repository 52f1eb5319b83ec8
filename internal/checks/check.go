// Package checks defines the shouldRun/check/fix contract shared by every
// concrete policy check, the canonical result shape, and the remediation
// action model.
package checks

import (
	"context"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/flemzord/github-compliance-sub000/internal/policy"
	"github.com/google/go-github/v81/github"
)

// Forge is the client surface the checks and runner consume. Reads return
// nil (not an error) when the forge reports an optional sub-resource as not
// configured. Writes invalidate the cache namespaces they can stale.
type Forge interface {
	ListRepositories(ctx context.Context) ([]*github.Repository, error)
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error)
	GetBranchProtection(ctx context.Context, owner, repo, branch string) (*github.Protection, error)
	ListCollaborators(ctx context.Context, owner, repo string) ([]*github.User, error)
	ListTeamPermissions(ctx context.Context, owner, repo string) ([]*github.Team, error)
	GetVulnerabilityAlerts(ctx context.Context, owner, repo string) (bool, error)
	GetSecuritySettings(ctx context.Context, owner, repo string) (*github.SecurityAndAnalysis, error)

	UpdateRepository(ctx context.Context, owner, repo string, patch *github.Repository) error
	UpdateBranchProtection(ctx context.Context, owner, repo, branch string, req *github.ProtectionRequest) error
	AddTeamPermission(ctx context.Context, team, owner, repo, permission string) error
	RemoveTeamPermission(ctx context.Context, team, owner, repo string) error
	RemoveCollaborator(ctx context.Context, owner, repo, user string) error
	SetVulnerabilityAlerts(ctx context.Context, owner, repo string, enabled bool) error
	SetSecretScanning(ctx context.Context, owner, repo string, enabled bool) error
	SetSecretScanningPushProtection(ctx context.Context, owner, repo string, enabled bool) error
}

// Context carries everything a check needs for one (repository, check) pair.
// It is built by the runner per pair and discarded after use.
type Context struct {
	Client Forge
	Config *config.ComplianceConfig
	DryRun bool
	Repo   *github.Repository
}

func (cc *Context) Owner() string {
	return cc.Repo.GetOwner().GetLogin()
}

func (cc *Context) RepoName() string {
	return cc.Repo.GetName()
}

// Check is one compliance dimension (merge methods, branch protection, ...).
//
// Check must not mutate remote state and must express policy violations via
// Result.Compliant=false, not via an error; errors are reserved for
// infrastructure failures and are converted by the runner into an errored
// execution. Fix is called unconditionally by the runner; it is each check's
// own responsibility to stay read-only when Context.DryRun is set.
type Check interface {
	Name() string
	ShouldRun(ctx context.Context, cc *Context) bool
	Check(ctx context.Context, cc *Context) (Result, error)
	Fix(ctx context.Context, cc *Context) (Result, error)
}

// setting resolves the typed policy settings for key, or nil when no policy
// is declared for this repository. Checks use a nil result to report
// ShouldRun=false (no declared policy means the check is inert).
func setting[T any](cc *Context, key config.CheckKey) *T {
	v, ok := policy.ResolveSetting(cc.Config, cc.Repo, key)
	if !ok {
		return nil
	}
	s, ok := v.(*T)
	if !ok {
		return nil
	}
	return s
}
