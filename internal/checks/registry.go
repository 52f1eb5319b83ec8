package checks

import (
	"fmt"
	"strings"
)

// Check registration order is execution order within a repository: a later
// check may depend on state an earlier check's fix just mutated, so the
// order below is part of the contract, not cosmetic.
var registry = []Check{
	&MergeMethodsCheck{},
	&BranchProtectionCheck{},
	&TeamPermissionsCheck{},
	&SecurityScanningCheck{},
	&ArchivedReposCheck{},
	&RepositorySettingsCheck{},
}

// All returns every registered check in registration order.
func All() []Check {
	out := make([]Check, len(registry))
	copy(out, registry)
	return out
}

// Select filters the registered checks by name, preserving registration
// order regardless of the order names are given in. An empty name list
// selects everything.
func Select(names []string) ([]Check, error) {
	if len(names) == 0 {
		return All(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		wanted[n] = false
	}

	var out []Check
	for _, c := range registry {
		if _, ok := wanted[c.Name()]; ok {
			wanted[c.Name()] = true
			out = append(out, c)
		}
	}

	for n, found := range wanted {
		if !found {
			return nil, fmt.Errorf("unknown check: %s", n)
		}
	}
	return out, nil
}
