package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
)

// TeamPermissionsCheck reconciles team-to-repository permission grants and,
// optionally, removes directly-added collaborators so access flows through
// teams. Team membership itself is out of scope.
type TeamPermissionsCheck struct{}

func (c *TeamPermissionsCheck) Name() string { return "team-permissions" }

func (c *TeamPermissionsCheck) ShouldRun(_ context.Context, cc *Context) bool {
	return setting[config.TeamPermissionsSettings](cc, config.KeyTeamPermissions) != nil
}

func (c *TeamPermissionsCheck) Check(ctx context.Context, cc *Context) (Result, error) {
	res, _, err := c.evaluate(ctx, cc)
	return res, err
}

func (c *TeamPermissionsCheck) Fix(ctx context.Context, cc *Context) (Result, error) {
	return runFix(ctx, cc, c.evaluate)
}

func (c *TeamPermissionsCheck) evaluate(ctx context.Context, cc *Context) (Result, []Action, error) {
	want := setting[config.TeamPermissionsSettings](cc, config.KeyTeamPermissions)
	if want == nil {
		return Compliant("No team permission policy declared"), nil, nil
	}

	owner, name := cc.Owner(), cc.RepoName()

	teams, err := cc.Client.ListTeamPermissions(ctx, owner, name)
	if err != nil {
		return Result{}, nil, fmt.Errorf("list team permissions: %w", err)
	}
	have := make(map[string]string, len(teams))
	for _, t := range teams {
		have[strings.ToLower(t.GetSlug())] = strings.ToLower(t.GetPermission())
	}

	var drift []string
	var actions []Action

	// Deterministic iteration over the declared teams.
	slugs := make([]string, 0, len(want.Teams))
	for slug := range want.Teams {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		perm := strings.ToLower(want.Teams[slug])
		current, granted := have[strings.ToLower(slug)]
		if granted && current == perm {
			continue
		}
		if granted {
			drift = append(drift, fmt.Sprintf("team %s has %s, policy requires %s", slug, current, perm))
		} else {
			drift = append(drift, fmt.Sprintf("team %s has no access, policy requires %s", slug, perm))
		}

		slug, perm := slug, perm
		actions = append(actions, Action{
			Description: fmt.Sprintf("grant %s permission to team %s", perm, slug),
			Apply: func(ctx context.Context) error {
				return cc.Client.AddTeamPermission(ctx, slug, owner, name, perm)
			},
		})
	}

	if want.RemoveExtraTeams != nil && *want.RemoveExtraTeams {
		declared := make(map[string]bool, len(want.Teams))
		for slug := range want.Teams {
			declared[strings.ToLower(slug)] = true
		}
		extras := make([]string, 0)
		for slug := range have {
			if !declared[slug] {
				extras = append(extras, slug)
			}
		}
		sort.Strings(extras)
		for _, slug := range extras {
			drift = append(drift, fmt.Sprintf("team %s is not declared in policy", slug))
			slug := slug
			actions = append(actions, Action{
				Description: fmt.Sprintf("revoke access for team %s", slug),
				Apply: func(ctx context.Context) error {
					return cc.Client.RemoveTeamPermission(ctx, slug, owner, name)
				},
			})
		}
	}

	if want.RemoveIndividualCollaborators != nil && *want.RemoveIndividualCollaborators {
		collaborators, err := cc.Client.ListCollaborators(ctx, owner, name)
		if err != nil {
			return Result{}, nil, fmt.Errorf("list collaborators: %w", err)
		}
		for _, user := range collaborators {
			login := user.GetLogin()
			if login == "" || strings.EqualFold(login, owner) {
				continue
			}
			drift = append(drift, fmt.Sprintf("collaborator %s has direct access", login))
			actions = append(actions, Action{
				Description: fmt.Sprintf("remove collaborator %s", login),
				Apply: func(ctx context.Context) error {
					return cc.Client.RemoveCollaborator(ctx, owner, name, login)
				},
			})
		}
	}

	if len(drift) == 0 {
		return Compliant("Team permissions match policy"), nil, nil
	}

	res := NonCompliant("Team permissions diverge from policy: "+strings.Join(drift, "; "), actionDescriptions(actions))
	return res, actions, nil
}
