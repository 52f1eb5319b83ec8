package checks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// BranchProtectionCheck verifies that the branches named by the policy carry
// the required protection settings. An empty pattern list in the policy
// targets the repository's default branch.
type BranchProtectionCheck struct{}

func (c *BranchProtectionCheck) Name() string { return "branch-protection" }

func (c *BranchProtectionCheck) ShouldRun(_ context.Context, cc *Context) bool {
	return setting[config.BranchProtectionSettings](cc, config.KeyBranchProtection) != nil
}

func (c *BranchProtectionCheck) Check(ctx context.Context, cc *Context) (Result, error) {
	res, _, err := c.evaluate(ctx, cc)
	return res, err
}

func (c *BranchProtectionCheck) Fix(ctx context.Context, cc *Context) (Result, error) {
	return runFix(ctx, cc, c.evaluate)
}

func (c *BranchProtectionCheck) evaluate(ctx context.Context, cc *Context) (Result, []Action, error) {
	want := setting[config.BranchProtectionSettings](cc, config.KeyBranchProtection)
	if want == nil {
		return Compliant("No branch protection policy declared"), nil, nil
	}

	owner, name := cc.Owner(), cc.RepoName()

	branches := want.Patterns
	if len(branches) == 0 {
		branch, err := c.defaultBranch(ctx, cc)
		if err != nil {
			return Result{}, nil, err
		}
		branches = []string{branch}
	}

	var drift []string
	var actions []Action
	for _, branch := range branches {
		prot, err := cc.Client.GetBranchProtection(ctx, owner, name, branch)
		if err != nil {
			return Result{}, nil, fmt.Errorf("get branch protection for %s: %w", branch, err)
		}

		problems := protectionDrift(want, prot)
		if len(problems) == 0 {
			continue
		}
		drift = append(drift, fmt.Sprintf("%s: %s", branch, strings.Join(problems, ", ")))

		branch := branch
		actions = append(actions, Action{
			Description: fmt.Sprintf("update branch protection on %s", branch),
			Apply: func(ctx context.Context) error {
				return cc.Client.UpdateBranchProtection(ctx, owner, name, branch, protectionRequest(want))
			},
		})
	}

	if len(drift) == 0 {
		return Compliant("Branch protection matches policy"), nil, nil
	}

	res := NonCompliant("Branch protection diverges from policy: "+strings.Join(drift, "; "), actionDescriptions(actions))
	return res, actions, nil
}

func (c *BranchProtectionCheck) defaultBranch(ctx context.Context, cc *Context) (string, error) {
	if b := cc.Repo.GetDefaultBranch(); b != "" {
		return b, nil
	}
	repo, err := cc.Client.GetRepository(ctx, cc.Owner(), cc.RepoName())
	if err != nil {
		return "", fmt.Errorf("resolve default branch: %w", err)
	}
	if repo.GetDefaultBranch() == "" {
		return "", fmt.Errorf("resolve default branch: repository reports no default branch")
	}
	return repo.GetDefaultBranch(), nil
}

// protectionDrift compares live protection against the declared policy.
// Only declared fields participate; a nil policy field constrains nothing.
func protectionDrift(want *config.BranchProtectionSettings, prot *github.Protection) []string {
	if prot == nil {
		return []string{"branch is not protected"}
	}

	var problems []string

	if want.RequiredReviews != nil {
		got := 0
		if reviews := prot.GetRequiredPullRequestReviews(); reviews != nil {
			got = reviews.RequiredApprovingReviewCount
		}
		if got < *want.RequiredReviews {
			problems = append(problems, fmt.Sprintf("requires %d approving reviews, policy requires %d", got, *want.RequiredReviews))
		}
	}
	if want.DismissStaleReviews != nil {
		got := prot.GetRequiredPullRequestReviews() != nil && prot.GetRequiredPullRequestReviews().DismissStaleReviews
		if got != *want.DismissStaleReviews {
			problems = append(problems, "dismiss stale reviews setting diverges")
		}
	}
	if want.RequireCodeOwnerReviews != nil {
		got := prot.GetRequiredPullRequestReviews() != nil && prot.GetRequiredPullRequestReviews().RequireCodeOwnerReviews
		if got != *want.RequireCodeOwnerReviews {
			problems = append(problems, "code owner review setting diverges")
		}
	}

	if len(want.RequiredStatusChecks) > 0 {
		var got []string
		if rsc := prot.GetRequiredStatusChecks(); rsc != nil && rsc.Contexts != nil {
			got = *rsc.Contexts
		}
		for _, wantCtx := range want.RequiredStatusChecks {
			if !slices.Contains(got, wantCtx) {
				problems = append(problems, fmt.Sprintf("missing required status check %q", wantCtx))
			}
		}
	}
	if want.StrictStatusChecks != nil {
		got := prot.GetRequiredStatusChecks() != nil && prot.GetRequiredStatusChecks().Strict
		if got != *want.StrictStatusChecks {
			problems = append(problems, "strict status checks setting diverges")
		}
	}

	if want.EnforceAdmins != nil {
		got := prot.GetEnforceAdmins() != nil && prot.GetEnforceAdmins().Enabled
		if got != *want.EnforceAdmins {
			problems = append(problems, "enforce admins setting diverges")
		}
	}
	if want.AllowForcePushes != nil {
		got := prot.GetAllowForcePushes() != nil && prot.GetAllowForcePushes().Enabled
		if got != *want.AllowForcePushes {
			problems = append(problems, "force push setting diverges")
		}
	}
	if want.AllowDeletions != nil {
		got := prot.GetAllowDeletions() != nil && prot.GetAllowDeletions().Enabled
		if got != *want.AllowDeletions {
			problems = append(problems, "deletion setting diverges")
		}
	}
	if want.RequireConversationResolution != nil {
		got := prot.GetRequiredConversationResolution() != nil && prot.GetRequiredConversationResolution().Enabled
		if got != *want.RequireConversationResolution {
			problems = append(problems, "conversation resolution setting diverges")
		}
	}

	return problems
}

// protectionRequest builds the full update request from the declared policy.
// Undeclared boolean fields fall back to the platform defaults rather than
// preserving live values: the declared policy is the source of truth.
func protectionRequest(want *config.BranchProtectionSettings) *github.ProtectionRequest {
	req := &github.ProtectionRequest{
		EnforceAdmins:                  want.EnforceAdmins != nil && *want.EnforceAdmins,
		AllowForcePushes:               want.AllowForcePushes,
		AllowDeletions:                 want.AllowDeletions,
		RequiredConversationResolution: want.RequireConversationResolution,
	}

	if want.RequiredReviews != nil || want.DismissStaleReviews != nil || want.RequireCodeOwnerReviews != nil {
		reviews := &github.PullRequestReviewsEnforcementRequest{}
		if want.RequiredReviews != nil {
			reviews.RequiredApprovingReviewCount = *want.RequiredReviews
		}
		if want.DismissStaleReviews != nil {
			reviews.DismissStaleReviews = *want.DismissStaleReviews
		}
		if want.RequireCodeOwnerReviews != nil {
			reviews.RequireCodeOwnerReviews = *want.RequireCodeOwnerReviews
		}
		req.RequiredPullRequestReviews = reviews
	}

	if len(want.RequiredStatusChecks) > 0 || want.StrictStatusChecks != nil {
		contexts := slices.Clone(want.RequiredStatusChecks)
		if contexts == nil {
			contexts = []string{}
		}
		req.RequiredStatusChecks = &github.RequiredStatusChecks{
			Strict:   want.StrictStatusChecks != nil && *want.StrictStatusChecks,
			Contexts: &contexts,
		}
	}

	return req
}
