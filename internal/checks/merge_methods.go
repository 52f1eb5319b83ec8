package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// MergeMethodsCheck verifies that a repository allows exactly the merge
// strategies the policy declares.
type MergeMethodsCheck struct{}

func (c *MergeMethodsCheck) Name() string { return "merge-methods" }

func (c *MergeMethodsCheck) ShouldRun(_ context.Context, cc *Context) bool {
	return setting[config.MergeMethodsSettings](cc, config.KeyMergeMethods) != nil
}

func (c *MergeMethodsCheck) Check(ctx context.Context, cc *Context) (Result, error) {
	res, _, err := c.evaluate(ctx, cc)
	return res, err
}

func (c *MergeMethodsCheck) Fix(ctx context.Context, cc *Context) (Result, error) {
	return runFix(ctx, cc, c.evaluate)
}

func (c *MergeMethodsCheck) evaluate(ctx context.Context, cc *Context) (Result, []Action, error) {
	want := setting[config.MergeMethodsSettings](cc, config.KeyMergeMethods)
	if want == nil {
		return Compliant("No merge method policy declared"), nil, nil
	}

	owner, name := cc.Owner(), cc.RepoName()
	repo, err := cc.Client.GetRepository(ctx, owner, name)
	if err != nil {
		return Result{}, nil, fmt.Errorf("get repository: %w", err)
	}

	type method struct {
		label string
		want  *bool
		got   bool
		patch func(bool) *github.Repository
	}
	methods := []method{
		{
			label: "merge commit",
			want:  want.MergeCommit, got: repo.GetAllowMergeCommit(),
			patch: func(v bool) *github.Repository { return &github.Repository{AllowMergeCommit: github.Ptr(v)} },
		},
		{
			label: "squash merge",
			want:  want.Squash, got: repo.GetAllowSquashMerge(),
			patch: func(v bool) *github.Repository { return &github.Repository{AllowSquashMerge: github.Ptr(v)} },
		},
		{
			label: "rebase merge",
			want:  want.Rebase, got: repo.GetAllowRebaseMerge(),
			patch: func(v bool) *github.Repository { return &github.Repository{AllowRebaseMerge: github.Ptr(v)} },
		},
	}

	var drift []string
	var actions []Action
	for _, m := range methods {
		if m.want == nil || *m.want == m.got {
			continue
		}
		verb := "disable"
		if *m.want {
			verb = "enable"
		}
		drift = append(drift, fmt.Sprintf("%s is %s, policy requires %s", m.label, enabledWord(m.got), enabledWord(*m.want)))

		desired, patch := *m.want, m.patch
		actions = append(actions, Action{
			Description: fmt.Sprintf("%s %s", verb, m.label),
			Apply: func(ctx context.Context) error {
				return cc.Client.UpdateRepository(ctx, owner, name, patch(desired))
			},
		})
	}

	if len(drift) == 0 {
		return Compliant("Merge methods match policy"), nil, nil
	}

	res := NonCompliant("Merge methods diverge from policy: "+strings.Join(drift, "; "), actionDescriptions(actions))
	return res, actions, nil
}

func enabledWord(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func actionDescriptions(actions []Action) []string {
	if len(actions) == 0 {
		return nil
	}
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Description)
	}
	return out
}
