package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ComplianceConfig is the declared desired state for a fleet of repositories.
// It is loaded once per run and never mutated afterwards.
type ComplianceConfig struct {
	// Organization is the GitHub organization whose repositories are audited.
	// Empty means the authenticated user's own repositories.
	Organization string `yaml:"organization"`

	Cache CacheSettings `yaml:"cache"`

	// Defaults are the baseline settings for every repository.
	Defaults SettingsSet `yaml:"defaults"`

	// Rules override defaults for matching repositories, in declared order.
	// For a given key, the last matching rule that declares the key wins and
	// replaces the previously effective value wholesale.
	Rules []Rule `yaml:"rules"`
}

type Rule struct {
	Match RuleMatch   `yaml:"match"`
	Apply SettingsSet `yaml:"apply"`
}

// RuleMatch selects repositories. A rule with no criteria matches everything.
type RuleMatch struct {
	// Repositories holds case-insensitive glob patterns ('*' and '?') matched
	// against the repository name. nil means "no name criterion"; an empty
	// list matches no repository at all.
	Repositories []string `yaml:"repositories"`

	// OnlyPrivate, when set, requires the repository's private flag to equal it.
	OnlyPrivate *bool `yaml:"only_private"`
}

// CacheSettings configures the read-through cache that sits beneath the forge
// client. TTL values are in seconds, keyed by cache namespace. A namespace
// with no TTL configured is not cached.
type CacheSettings struct {
	Enabled bool           `yaml:"enabled"`
	TTL     map[string]int `yaml:"ttl"`
}

// TTLDurations converts the per-namespace TTL seconds into durations.
func (c CacheSettings) TTLDurations() map[string]time.Duration {
	if len(c.TTL) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(c.TTL))
	for ns, secs := range c.TTL {
		out[ns] = time.Duration(secs) * time.Second
	}
	return out
}

// Load reads and validates a policy document from path.
func Load(path string) (*ComplianceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a policy document. Unknown fields are rejected so typos in
// check keys fail loudly instead of silently declaring no policy.
func Parse(raw []byte) (*ComplianceConfig, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)

	cfg := &ComplianceConfig{}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ComplianceConfig) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	c.Organization = strings.TrimSpace(c.Organization)
	if strings.Contains(c.Organization, "/") {
		return fmt.Errorf("invalid organization %q: expected an account name, not owner/repo", c.Organization)
	}

	for ns, secs := range c.Cache.TTL {
		if secs < 0 {
			return fmt.Errorf("cache ttl for namespace %q must be >= 0, got %d", ns, secs)
		}
	}

	if tp := c.Defaults.TeamPermissions; tp != nil {
		if err := validateTeamPermissions(tp); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}
	if bp := c.Defaults.BranchProtection; bp != nil {
		if err := validateBranchProtection(bp); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}

	for i, rule := range c.Rules {
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	return nil
}

func validateRule(rule Rule) error {
	for _, p := range rule.Match.Repositories {
		if strings.TrimSpace(p) == "" {
			return errors.New("match.repositories contains an empty pattern")
		}
	}

	declaresAny := false
	for _, key := range Keys() {
		if _, ok := rule.Apply.Lookup(key); ok {
			declaresAny = true
			break
		}
	}
	if !declaresAny {
		return errors.New("apply block declares no settings")
	}

	if tp := rule.Apply.TeamPermissions; tp != nil {
		if err := validateTeamPermissions(tp); err != nil {
			return err
		}
	}
	if defaults := rule.Apply.BranchProtection; defaults != nil {
		if err := validateBranchProtection(defaults); err != nil {
			return err
		}
	}
	return nil
}

func validateTeamPermissions(tp *TeamPermissionsSettings) error {
	for team, perm := range tp.Teams {
		switch strings.ToLower(perm) {
		case "pull", "triage", "push", "maintain", "admin":
		default:
			return fmt.Errorf("team %q: unsupported permission %q (must be one of: pull, triage, push, maintain, admin)", team, perm)
		}
	}
	return nil
}

func validateBranchProtection(bp *BranchProtectionSettings) error {
	if bp.RequiredReviews != nil && (*bp.RequiredReviews < 0 || *bp.RequiredReviews > 6) {
		return fmt.Errorf("branch_protection.required_reviews must be between 0 and 6, got %d", *bp.RequiredReviews)
	}
	return nil
}
