// Package policy computes the effective per-repository setting for a check
// key from the policy document's defaults plus its ordered override rules.
package policy

import (
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// ResolveSetting returns the effective setting for (repo, key): the defaults
// value, replaced wholesale by each matching rule that declares the key, in
// declared order. The second return is false when no level declares the key,
// which callers treat as "no policy" (the check is inert for this repo).
func ResolveSetting(cfg *config.ComplianceConfig, repo *github.Repository, key config.CheckKey) (any, bool) {
	if cfg == nil || repo == nil {
		return nil, false
	}

	effective, ok := cfg.Defaults.Lookup(key)

	for _, rule := range cfg.Rules {
		if !RuleMatches(repo, rule.Match) {
			continue
		}
		if v, declared := rule.Apply.Lookup(key); declared {
			effective, ok = v, true
		}
	}

	return effective, ok
}

// RuleMatches reports whether a rule's match block selects the repository.
// Both criteria must hold; an absent criterion always holds, so a rule with
// no criteria matches every repository.
func RuleMatches(repo *github.Repository, match config.RuleMatch) bool {
	if repo == nil {
		return false
	}

	if match.Repositories != nil && !MatchesPattern(repo.GetName(), match.Repositories) {
		return false
	}
	if match.OnlyPrivate != nil && *match.OnlyPrivate != repo.GetPrivate() {
		return false
	}
	return true
}

// MatchesPattern reports whether name matches at least one of the patterns.
// An empty pattern list never matches, regardless of name.
func MatchesPattern(name string, patterns []string) bool {
	for _, p := range patterns {
		if globMatch(name, p) {
			return true
		}
	}
	return false
}

// globMatch matches name against an anchored, case-insensitive glob where
// '*' matches any run of characters and '?' matches exactly one.
func globMatch(name, pattern string) bool {
	n := []rune(strings.ToLower(name))
	p := []rune(strings.ToLower(pattern))

	// Iterative matcher with single-star backtracking.
	var ni, pi int
	star, nBacktrack := -1, 0
	for ni < len(n) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == n[ni]):
			ni++
			pi++
		case pi < len(p) && p[pi] == '*':
			star, nBacktrack = pi, ni
			pi++
		case star >= 0:
			nBacktrack++
			ni, pi = nBacktrack, star+1
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
