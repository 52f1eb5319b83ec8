package config

// CheckKey identifies one compliance dimension in the policy document.
// Keys double as the YAML keys under defaults: and rules[].apply:.
type CheckKey string

const (
	KeyMergeMethods       CheckKey = "merge_methods"
	KeyBranchProtection   CheckKey = "branch_protection"
	KeyTeamPermissions    CheckKey = "team_permissions"
	KeySecurityScanning   CheckKey = "security_scanning"
	KeyArchivedRepos      CheckKey = "archived_repos"
	KeyRepositorySettings CheckKey = "repository_settings"
)

// SettingsSet holds the per-check settings declared at one level of the policy
// document (defaults or a single rule's apply block). A nil field means the
// level does not declare that key, which is distinct from declaring it with
// zero values: rule application replaces whole pointers, never merges fields.
type SettingsSet struct {
	MergeMethods       *MergeMethodsSettings       `yaml:"merge_methods"`
	BranchProtection   *BranchProtectionSettings   `yaml:"branch_protection"`
	TeamPermissions    *TeamPermissionsSettings    `yaml:"team_permissions"`
	SecurityScanning   *SecurityScanningSettings   `yaml:"security_scanning"`
	ArchivedRepos      *ArchivedReposSettings      `yaml:"archived_repos"`
	RepositorySettings *RepositorySettingsSettings `yaml:"repository_settings"`
}

// Lookup returns the settings declared for key at this level, or false when
// the key is absent. The returned value is the typed *XxxSettings pointer.
func (s SettingsSet) Lookup(key CheckKey) (any, bool) {
	switch key {
	case KeyMergeMethods:
		if s.MergeMethods != nil {
			return s.MergeMethods, true
		}
	case KeyBranchProtection:
		if s.BranchProtection != nil {
			return s.BranchProtection, true
		}
	case KeyTeamPermissions:
		if s.TeamPermissions != nil {
			return s.TeamPermissions, true
		}
	case KeySecurityScanning:
		if s.SecurityScanning != nil {
			return s.SecurityScanning, true
		}
	case KeyArchivedRepos:
		if s.ArchivedRepos != nil {
			return s.ArchivedRepos, true
		}
	case KeyRepositorySettings:
		if s.RepositorySettings != nil {
			return s.RepositorySettings, true
		}
	}
	return nil, false
}

// Keys lists every check key the loader understands, in the order checks are
// registered and executed.
func Keys() []CheckKey {
	return []CheckKey{
		KeyMergeMethods,
		KeyBranchProtection,
		KeyTeamPermissions,
		KeySecurityScanning,
		KeyArchivedRepos,
		KeyRepositorySettings,
	}
}

// MergeMethodsSettings declares which merge strategies a repository must
// allow. A nil field means the policy does not constrain that method.
type MergeMethodsSettings struct {
	MergeCommit *bool `yaml:"merge_commit"`
	Squash      *bool `yaml:"squash"`
	Rebase      *bool `yaml:"rebase"`
}

// BranchProtectionSettings declares the protection required on the listed
// branches. An empty Patterns list targets the repository's default branch.
type BranchProtectionSettings struct {
	Patterns                      []string `yaml:"patterns"`
	RequiredReviews               *int     `yaml:"required_reviews"`
	DismissStaleReviews           *bool    `yaml:"dismiss_stale_reviews"`
	RequireCodeOwnerReviews       *bool    `yaml:"require_code_owner_reviews"`
	RequiredStatusChecks          []string `yaml:"required_status_checks"`
	StrictStatusChecks            *bool    `yaml:"strict_status_checks"`
	EnforceAdmins                 *bool    `yaml:"enforce_admins"`
	AllowForcePushes              *bool    `yaml:"allow_force_pushes"`
	AllowDeletions                *bool    `yaml:"allow_deletions"`
	RequireConversationResolution *bool    `yaml:"require_conversation_resolution"`
}

// TeamPermissionsSettings declares which teams must hold which permission on
// a repository. Permissions use the GitHub API vocabulary: pull, triage,
// push, maintain, admin.
type TeamPermissionsSettings struct {
	Teams map[string]string `yaml:"teams"`

	// RemoveExtraTeams revokes access for teams granted on the repository
	// but absent from Teams.
	RemoveExtraTeams *bool `yaml:"remove_extra_teams"`

	// RemoveIndividualCollaborators removes directly-added collaborators so
	// access flows through teams only.
	RemoveIndividualCollaborators *bool `yaml:"remove_individual_collaborators"`
}

type SecurityScanningSettings struct {
	VulnerabilityAlerts          *bool `yaml:"vulnerability_alerts"`
	SecretScanning               *bool `yaml:"secret_scanning"`
	SecretScanningPushProtection *bool `yaml:"secret_scanning_push_protection"`
}

// ArchivedReposSettings declares whether matched repositories should be
// archived. Unarchiving is not supported by the forge API and is reported as
// requiring manual intervention.
type ArchivedReposSettings struct {
	Archived *bool `yaml:"archived"`
}

type RepositorySettingsSettings struct {
	HasIssues           *bool `yaml:"has_issues"`
	HasProjects         *bool `yaml:"has_projects"`
	HasWiki             *bool `yaml:"has_wiki"`
	AllowAutoMerge      *bool `yaml:"allow_auto_merge"`
	DeleteBranchOnMerge *bool `yaml:"delete_branch_on_merge"`
}
