package checks

import (
	"context"
	"fmt"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// fakeForge is an in-memory Forge for check tests. Writes are recorded as
// human-readable strings; failWrites makes every write fail.
type fakeForge struct {
	repo          *github.Repository
	protection    map[string]*github.Protection
	teams         []*github.Team
	collaborators []*github.User
	vulnAlerts    bool
	security      *github.SecurityAndAnalysis

	readErr    error
	failWrites bool
	writes     []string
}

func (f *fakeForge) ListRepositories(context.Context) ([]*github.Repository, error) {
	return []*github.Repository{f.repo}, f.readErr
}

func (f *fakeForge) GetRepository(context.Context, string, string) (*github.Repository, error) {
	return f.repo, f.readErr
}

func (f *fakeForge) GetBranch(_ context.Context, _, _, branch string) (*github.Branch, error) {
	return &github.Branch{Name: github.Ptr(branch)}, f.readErr
}

func (f *fakeForge) GetBranchProtection(_ context.Context, _, _ string, branch string) (*github.Protection, error) {
	return f.protection[branch], f.readErr
}

func (f *fakeForge) ListCollaborators(context.Context, string, string) ([]*github.User, error) {
	return f.collaborators, f.readErr
}

func (f *fakeForge) ListTeamPermissions(context.Context, string, string) ([]*github.Team, error) {
	return f.teams, f.readErr
}

func (f *fakeForge) GetVulnerabilityAlerts(context.Context, string, string) (bool, error) {
	return f.vulnAlerts, f.readErr
}

func (f *fakeForge) GetSecuritySettings(context.Context, string, string) (*github.SecurityAndAnalysis, error) {
	return f.security, f.readErr
}

func (f *fakeForge) write(desc string) error {
	if f.failWrites {
		return fmt.Errorf("forbidden")
	}
	f.writes = append(f.writes, desc)
	return nil
}

func (f *fakeForge) UpdateRepository(_ context.Context, _, _ string, patch *github.Repository) error {
	return f.write(fmt.Sprintf("update repository %s", repoPatchSummary(patch)))
}

func (f *fakeForge) UpdateBranchProtection(_ context.Context, _, _, branch string, _ *github.ProtectionRequest) error {
	return f.write("update protection " + branch)
}

func (f *fakeForge) AddTeamPermission(_ context.Context, team, _, _, permission string) error {
	return f.write(fmt.Sprintf("add team %s=%s", team, permission))
}

func (f *fakeForge) RemoveTeamPermission(_ context.Context, team, _, _ string) error {
	return f.write("remove team " + team)
}

func (f *fakeForge) RemoveCollaborator(_ context.Context, _, _, user string) error {
	return f.write("remove collaborator " + user)
}

func (f *fakeForge) SetVulnerabilityAlerts(_ context.Context, _, _ string, enabled bool) error {
	return f.write(fmt.Sprintf("vulnerability alerts=%t", enabled))
}

func (f *fakeForge) SetSecretScanning(_ context.Context, _, _ string, enabled bool) error {
	return f.write(fmt.Sprintf("secret scanning=%t", enabled))
}

func (f *fakeForge) SetSecretScanningPushProtection(_ context.Context, _, _ string, enabled bool) error {
	return f.write(fmt.Sprintf("push protection=%t", enabled))
}

func repoPatchSummary(patch *github.Repository) string {
	switch {
	case patch == nil:
		return "<nil>"
	case patch.AllowMergeCommit != nil:
		return fmt.Sprintf("allow_merge_commit=%t", *patch.AllowMergeCommit)
	case patch.AllowSquashMerge != nil:
		return fmt.Sprintf("allow_squash_merge=%t", *patch.AllowSquashMerge)
	case patch.AllowRebaseMerge != nil:
		return fmt.Sprintf("allow_rebase_merge=%t", *patch.AllowRebaseMerge)
	case patch.Archived != nil:
		return fmt.Sprintf("archived=%t", *patch.Archived)
	case patch.HasIssues != nil:
		return fmt.Sprintf("has_issues=%t", *patch.HasIssues)
	case patch.HasProjects != nil:
		return fmt.Sprintf("has_projects=%t", *patch.HasProjects)
	case patch.HasWiki != nil:
		return fmt.Sprintf("has_wiki=%t", *patch.HasWiki)
	case patch.AllowAutoMerge != nil:
		return fmt.Sprintf("allow_auto_merge=%t", *patch.AllowAutoMerge)
	case patch.DeleteBranchOnMerge != nil:
		return fmt.Sprintf("delete_branch_on_merge=%t", *patch.DeleteBranchOnMerge)
	default:
		return "other"
	}
}

func testContext(f *fakeForge, cfg ...configOption) *Context {
	cc := &Context{
		Client: f,
		Repo:   f.repo,
	}
	for _, apply := range cfg {
		apply(cc)
	}
	return cc
}

type configOption func(*Context)

func withDryRun() configOption {
	return func(cc *Context) { cc.DryRun = true }
}

// withPolicy installs a policy document whose defaults are the given
// settings set (no rules).
func withPolicy(defaults config.SettingsSet) configOption {
	return func(cc *Context) {
		cc.Config = &config.ComplianceConfig{Defaults: defaults}
	}
}
