package gh

import (
	"context"
	"fmt"

	"github.com/flemzord/github-compliance-sub000/internal/cache"
	"github.com/google/go-github/v81/github"
)

// Cache namespaces, one per kind of forge resource. Each namespace that can
// be mutated has an invalidation call wired to its write operations below.
const (
	NamespaceRepos         = "repos"
	NamespaceBranches      = "branches"
	NamespaceProtection    = "protection"
	NamespaceCollaborators = "collaborators"
	NamespaceTeams         = "teams"
	NamespaceSecurity      = "security"
)

// cached runs load through the read-through cache and restores the typed
// value. A cached nil (optional sub-resource not configured) comes back as
// the zero value.
func cached[T any](ctx context.Context, c *Client, desc cache.Descriptor, load func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.cache.GetOrLoad(ctx, desc, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry for %s/%s has unexpected type %T", desc.Namespace, desc.Identifier, v)
	}
	return t, nil
}

func (c *Client) descriptor(namespace, repo, identifier string, params map[string]string) cache.Descriptor {
	return cache.Descriptor{
		Namespace:  namespace,
		Owner:      c.cacheOwner(),
		Repo:       repo,
		Identifier: identifier,
		Params:     params,
	}
}

func (c *Client) invalidate(namespace, repo string) {
	c.cache.InvalidateNamespace(namespace, c.cacheOwner(), repo)
}

// ListRepositories lists every repository visible under the configured
// organization, or the authenticated user's own repositories when no
// organization context is set. The listing is owner-scoped in the cache, so
// per-repository invalidation does not refresh it; callers needing fresh
// per-repo state use GetRepository.
func (c *Client) ListRepositories(ctx context.Context) ([]*github.Repository, error) {
	desc := c.descriptor(NamespaceRepos, "", "list", map[string]string{"sort": "full_name"})
	return cached(ctx, c, desc, func(ctx context.Context) ([]*github.Repository, error) {
		if c.org != "" {
			return c.listOrgRepositories(ctx)
		}
		return c.listOwnRepositories(ctx)
	})
}

func (c *Client) listOrgRepositories(ctx context.Context) ([]*github.Repository, error) {
	var all []*github.Repository
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		Sort:        "full_name",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := c.api.Repositories.ListByOrg(ctx, c.org, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for org %s: %w", c.org, err)
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) listOwnRepositories(ctx context.Context) ([]*github.Repository, error) {
	var all []*github.Repository
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Affiliation: "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for authenticated user: %w", err)
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	desc := c.descriptor(NamespaceRepos, repo, "details", nil)
	return cached(ctx, c, desc, func(ctx context.Context) (*github.Repository, error) {
		r, _, err := c.api.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
		}
		return r, nil
	})
}

func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error) {
	desc := c.descriptor(NamespaceBranches, repo, branch, nil)
	return cached(ctx, c, desc, func(ctx context.Context) (*github.Branch, error) {
		b, resp, err := c.api.Repositories.GetBranch(ctx, owner, repo, branch, 0)
		if err != nil {
			if notFound(resp) {
				return nil, nil
			}
			return nil, fmt.Errorf("get branch %s of %s/%s: %w", branch, owner, repo, err)
		}
		return b, nil
	})
}

// GetBranchProtection returns nil without error when the branch carries no
// protection: the forge reports that as 404 and it is a policy finding, not
// an infrastructure failure.
func (c *Client) GetBranchProtection(ctx context.Context, owner, repo, branch string) (*github.Protection, error) {
	desc := c.descriptor(NamespaceProtection, repo, branch, nil)
	return cached(ctx, c, desc, func(ctx context.Context) (*github.Protection, error) {
		p, resp, err := c.api.Repositories.GetBranchProtection(ctx, owner, repo, branch)
		if err != nil {
			if notFound(resp) {
				return nil, nil
			}
			return nil, fmt.Errorf("get branch protection for %s of %s/%s: %w", branch, owner, repo, err)
		}
		return p, nil
	})
}

// ListCollaborators lists directly-added collaborators (not team members).
func (c *Client) ListCollaborators(ctx context.Context, owner, repo string) ([]*github.User, error) {
	desc := c.descriptor(NamespaceCollaborators, repo, "list", map[string]string{"affiliation": "direct"})
	return cached(ctx, c, desc, func(ctx context.Context) ([]*github.User, error) {
		var all []*github.User
		opts := &github.ListCollaboratorsOptions{
			Affiliation: "direct",
			ListOptions: github.ListOptions{PerPage: 100},
		}
		for {
			users, resp, err := c.api.Repositories.ListCollaborators(ctx, owner, repo, opts)
			if err != nil {
				return nil, fmt.Errorf("list collaborators of %s/%s: %w", owner, repo, err)
			}
			all = append(all, users...)
			if resp.NextPage == 0 {
				return all, nil
			}
			opts.Page = resp.NextPage
		}
	})
}

func (c *Client) ListTeamPermissions(ctx context.Context, owner, repo string) ([]*github.Team, error) {
	desc := c.descriptor(NamespaceTeams, repo, "list", nil)
	return cached(ctx, c, desc, func(ctx context.Context) ([]*github.Team, error) {
		var all []*github.Team
		opts := &github.ListOptions{PerPage: 100}
		for {
			teams, resp, err := c.api.Repositories.ListTeams(ctx, owner, repo, opts)
			if err != nil {
				if notFound(resp) {
					// User-owned repositories have no teams.
					return nil, nil
				}
				return nil, fmt.Errorf("list teams of %s/%s: %w", owner, repo, err)
			}
			all = append(all, teams...)
			if resp.NextPage == 0 {
				return all, nil
			}
			opts.Page = resp.NextPage
		}
	})
}

func (c *Client) GetVulnerabilityAlerts(ctx context.Context, owner, repo string) (bool, error) {
	desc := c.descriptor(NamespaceSecurity, repo, "vulnerability-alerts", nil)
	return cached(ctx, c, desc, func(ctx context.Context) (bool, error) {
		enabled, _, err := c.api.Repositories.GetVulnerabilityAlerts(ctx, owner, repo)
		if err != nil {
			return false, fmt.Errorf("get vulnerability alerts of %s/%s: %w", owner, repo, err)
		}
		return enabled, nil
	})
}

// GetSecuritySettings returns the repository's security_and_analysis block,
// nil when the forge does not expose one for this repository.
func (c *Client) GetSecuritySettings(ctx context.Context, owner, repo string) (*github.SecurityAndAnalysis, error) {
	desc := c.descriptor(NamespaceSecurity, repo, "settings", nil)
	return cached(ctx, c, desc, func(ctx context.Context) (*github.SecurityAndAnalysis, error) {
		r, _, err := c.api.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("get security settings of %s/%s: %w", owner, repo, err)
		}
		return r.GetSecurityAndAnalysis(), nil
	})
}

func (c *Client) UpdateRepository(ctx context.Context, owner, repo string, patch *github.Repository) error {
	_, _, err := c.api.Repositories.Edit(ctx, owner, repo, patch)
	if err != nil {
		return fmt.Errorf("update repository %s/%s: %w", owner, repo, err)
	}
	c.invalidate(NamespaceRepos, repo)
	// security_and_analysis rides on the repository object.
	c.invalidate(NamespaceSecurity, repo)
	return nil
}

func (c *Client) UpdateBranchProtection(ctx context.Context, owner, repo, branch string, req *github.ProtectionRequest) error {
	_, _, err := c.api.Repositories.UpdateBranchProtection(ctx, owner, repo, branch, req)
	if err != nil {
		return fmt.Errorf("update branch protection for %s of %s/%s: %w", branch, owner, repo, err)
	}
	c.invalidate(NamespaceProtection, repo)
	c.invalidate(NamespaceBranches, repo)
	return nil
}

func (c *Client) AddTeamPermission(ctx context.Context, team, owner, repo, permission string) error {
	opts := &github.TeamAddTeamRepoOptions{Permission: permission}
	if _, err := c.api.Teams.AddTeamRepoBySlug(ctx, owner, team, owner, repo, opts); err != nil {
		return fmt.Errorf("grant %s to team %s on %s/%s: %w", permission, team, owner, repo, err)
	}
	c.invalidate(NamespaceTeams, repo)
	return nil
}

func (c *Client) RemoveTeamPermission(ctx context.Context, team, owner, repo string) error {
	if _, err := c.api.Teams.RemoveTeamRepoBySlug(ctx, owner, team, owner, repo); err != nil {
		return fmt.Errorf("revoke team %s on %s/%s: %w", team, owner, repo, err)
	}
	c.invalidate(NamespaceTeams, repo)
	return nil
}

func (c *Client) RemoveCollaborator(ctx context.Context, owner, repo, user string) error {
	if _, err := c.api.Repositories.RemoveCollaborator(ctx, owner, repo, user); err != nil {
		return fmt.Errorf("remove collaborator %s from %s/%s: %w", user, owner, repo, err)
	}
	c.invalidate(NamespaceCollaborators, repo)
	return nil
}

func (c *Client) SetVulnerabilityAlerts(ctx context.Context, owner, repo string, enabled bool) error {
	var err error
	if enabled {
		_, err = c.api.Repositories.EnableVulnerabilityAlerts(ctx, owner, repo)
	} else {
		_, err = c.api.Repositories.DisableVulnerabilityAlerts(ctx, owner, repo)
	}
	if err != nil {
		return fmt.Errorf("set vulnerability alerts of %s/%s to %t: %w", owner, repo, enabled, err)
	}
	c.invalidate(NamespaceSecurity, repo)
	return nil
}

func (c *Client) SetSecretScanning(ctx context.Context, owner, repo string, enabled bool) error {
	patch := &github.Repository{SecurityAndAnalysis: &github.SecurityAndAnalysis{
		SecretScanning: &github.SecretScanning{Status: github.Ptr(featureStatus(enabled))},
	}}
	if _, _, err := c.api.Repositories.Edit(ctx, owner, repo, patch); err != nil {
		return fmt.Errorf("set secret scanning of %s/%s to %t: %w", owner, repo, enabled, err)
	}
	c.invalidate(NamespaceSecurity, repo)
	c.invalidate(NamespaceRepos, repo)
	return nil
}

func (c *Client) SetSecretScanningPushProtection(ctx context.Context, owner, repo string, enabled bool) error {
	patch := &github.Repository{SecurityAndAnalysis: &github.SecurityAndAnalysis{
		SecretScanningPushProtection: &github.SecretScanningPushProtection{Status: github.Ptr(featureStatus(enabled))},
	}}
	if _, _, err := c.api.Repositories.Edit(ctx, owner, repo, patch); err != nil {
		return fmt.Errorf("set secret scanning push protection of %s/%s to %t: %w", owner, repo, enabled, err)
	}
	c.invalidate(NamespaceSecurity, repo)
	c.invalidate(NamespaceRepos, repo)
	return nil
}

func featureStatus(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func notFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == 404
}
