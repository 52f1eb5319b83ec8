package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// RepositorySettingsCheck verifies general repository toggles (issues,
// projects, wiki, auto-merge, branch deletion on merge) against policy.
type RepositorySettingsCheck struct{}

func (c *RepositorySettingsCheck) Name() string { return "repository-settings" }

func (c *RepositorySettingsCheck) ShouldRun(_ context.Context, cc *Context) bool {
	return setting[config.RepositorySettingsSettings](cc, config.KeyRepositorySettings) != nil
}

func (c *RepositorySettingsCheck) Check(ctx context.Context, cc *Context) (Result, error) {
	res, _, err := c.evaluate(ctx, cc)
	return res, err
}

func (c *RepositorySettingsCheck) Fix(ctx context.Context, cc *Context) (Result, error) {
	return runFix(ctx, cc, c.evaluate)
}

func (c *RepositorySettingsCheck) evaluate(ctx context.Context, cc *Context) (Result, []Action, error) {
	want := setting[config.RepositorySettingsSettings](cc, config.KeyRepositorySettings)
	if want == nil {
		return Compliant("No repository settings policy declared"), nil, nil
	}

	owner, name := cc.Owner(), cc.RepoName()
	repo, err := cc.Client.GetRepository(ctx, owner, name)
	if err != nil {
		return Result{}, nil, fmt.Errorf("get repository: %w", err)
	}

	type toggle struct {
		label string
		want  *bool
		got   bool
		patch func(bool) *github.Repository
	}
	toggles := []toggle{
		{
			label: "issues",
			want:  want.HasIssues, got: repo.GetHasIssues(),
			patch: func(v bool) *github.Repository { return &github.Repository{HasIssues: github.Ptr(v)} },
		},
		{
			label: "projects",
			want:  want.HasProjects, got: repo.GetHasProjects(),
			patch: func(v bool) *github.Repository { return &github.Repository{HasProjects: github.Ptr(v)} },
		},
		{
			label: "wiki",
			want:  want.HasWiki, got: repo.GetHasWiki(),
			patch: func(v bool) *github.Repository { return &github.Repository{HasWiki: github.Ptr(v)} },
		},
		{
			label: "auto-merge",
			want:  want.AllowAutoMerge, got: repo.GetAllowAutoMerge(),
			patch: func(v bool) *github.Repository { return &github.Repository{AllowAutoMerge: github.Ptr(v)} },
		},
		{
			label: "delete branch on merge",
			want:  want.DeleteBranchOnMerge, got: repo.GetDeleteBranchOnMerge(),
			patch: func(v bool) *github.Repository { return &github.Repository{DeleteBranchOnMerge: github.Ptr(v)} },
		},
	}

	var drift []string
	var actions []Action
	for _, tg := range toggles {
		if tg.want == nil || *tg.want == tg.got {
			continue
		}
		drift = append(drift, fmt.Sprintf("%s is %s, policy requires %s", tg.label, enabledWord(tg.got), enabledWord(*tg.want)))

		desired, patch, label := *tg.want, tg.patch, tg.label
		actions = append(actions, Action{
			Description: fmt.Sprintf("%s %s", enableWord(desired), label),
			Apply: func(ctx context.Context) error {
				return cc.Client.UpdateRepository(ctx, owner, name, patch(desired))
			},
		})
	}

	if len(drift) == 0 {
		return Compliant("Repository settings match policy"), nil, nil
	}

	res := NonCompliant("Repository settings diverge from policy: "+strings.Join(drift, "; "), actionDescriptions(actions))
	return res, actions, nil
}
