package checks

import (
	"context"
	"testing"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

func teamRepo() *github.Repository {
	return &github.Repository{
		Name:     github.Ptr("api"),
		FullName: github.Ptr("acme/api"),
		Owner:    &github.User{Login: github.Ptr("acme")},
	}
}

func team(slug, permission string) *github.Team {
	return &github.Team{Slug: github.Ptr(slug), Permission: github.Ptr(permission)}
}

func TestTeamPermissionsGrantsAndUpdates(t *testing.T) {
	check := &TeamPermissionsCheck{}
	f := &fakeForge{
		repo:  teamRepo(),
		teams: []*github.Team{team("platform", "pull")},
	}
	cc := testContext(f, withPolicy(config.SettingsSet{TeamPermissions: &config.TeamPermissionsSettings{
		Teams: map[string]string{"platform": "push", "security": "admin"},
	}}))

	res, err := check.Fix(context.Background(), cc)
	if err != nil {
		t.Fatalf("Fix error: %v", err)
	}
	if !res.Compliant || !res.Fixed {
		t.Fatalf("want compliant+fixed, got %+v", res)
	}
	want := []string{"add team platform=push", "add team security=admin"}
	if len(f.writes) != len(want) {
		t.Fatalf("want writes %v, got %v", want, f.writes)
	}
	for i := range want {
		if f.writes[i] != want[i] {
			t.Fatalf("want writes %v, got %v", want, f.writes)
		}
	}
}

func TestTeamPermissionsRemovesExtras(t *testing.T) {
	check := &TeamPermissionsCheck{}
	f := &fakeForge{
		repo:  teamRepo(),
		teams: []*github.Team{team("platform", "push"), team("contractors", "pull")},
	}
	cc := testContext(f, withPolicy(config.SettingsSet{TeamPermissions: &config.TeamPermissionsSettings{
		Teams:            map[string]string{"platform": "push"},
		RemoveExtraTeams: github.Ptr(true),
	}}))

	res, err := check.Fix(context.Background(), cc)
	if err != nil {
		t.Fatalf("Fix error: %v", err)
	}
	if !res.Fixed {
		t.Fatalf("want fixed, got %+v", res)
	}
	if len(f.writes) != 1 || f.writes[0] != "remove team contractors" {
		t.Fatalf("unexpected writes: %v", f.writes)
	}
}

func TestTeamPermissionsRemovesIndividualCollaborators(t *testing.T) {
	check := &TeamPermissionsCheck{}
	f := &fakeForge{
		repo:          teamRepo(),
		teams:         []*github.Team{team("platform", "push")},
		collaborators: []*github.User{{Login: github.Ptr("mallory")}, {Login: github.Ptr("acme")}},
	}
	cc := testContext(f, withPolicy(config.SettingsSet{TeamPermissions: &config.TeamPermissionsSettings{
		Teams:                         map[string]string{"platform": "push"},
		RemoveIndividualCollaborators: github.Ptr(true),
	}}))

	res, err := check.Fix(context.Background(), cc)
	if err != nil {
		t.Fatalf("Fix error: %v", err)
	}
	if !res.Fixed {
		t.Fatalf("want fixed, got %+v", res)
	}
	// The repository owner is never removed.
	if len(f.writes) != 1 || f.writes[0] != "remove collaborator mallory" {
		t.Fatalf("unexpected writes: %v", f.writes)
	}
}

func TestTeamPermissionsCompliant(t *testing.T) {
	check := &TeamPermissionsCheck{}
	f := &fakeForge{
		repo:  teamRepo(),
		teams: []*github.Team{team("platform", "push")},
	}
	cc := testContext(f, withPolicy(config.SettingsSet{TeamPermissions: &config.TeamPermissionsSettings{
		Teams: map[string]string{"platform": "push"},
	}}))

	res, err := check.Check(context.Background(), cc)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !res.Compliant {
		t.Fatalf("want compliant, got %+v", res)
	}
}
