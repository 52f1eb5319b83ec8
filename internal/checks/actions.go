package checks

import (
	"context"
	"fmt"
)

// Action is one independent remediation step. Actions are applied
// independently: one action's failure never prevents the remaining actions
// from being attempted.
type Action struct {
	Description string
	Apply       func(ctx context.Context) error
}

// runFix is the shared fix path for remediating checks: evaluate once, pass
// through compliant and dry-run outcomes untouched, otherwise apply the
// collected actions.
func runFix(ctx context.Context, cc *Context, eval func(context.Context, *Context) (Result, []Action, error)) (Result, error) {
	res, actions, err := eval(ctx, cc)
	if err != nil || res.Compliant || cc.DryRun {
		return res, err
	}
	return remediate(ctx, res, actions), nil
}

// remediate applies the actions collected for a non-compliant result and
// reports the aggregate outcome:
//   - at least one action succeeded: compliant and fixed, with applied/failed
//     tallies in the details;
//   - a non-empty action list where every action failed: an errored result;
//   - no applicable actions: compliant ("No actions needed to apply") when the
//     check recorded nothing under actions_needed, otherwise the violation
//     stands and requires manual intervention.
func remediate(ctx context.Context, res Result, actions []Action) Result {
	if len(actions) == 0 {
		if len(res.actionsNeeded()) == 0 {
			return Compliant("No actions needed to apply")
		}
		return res
	}

	var applied, failed []string
	for _, a := range actions {
		if err := a.Apply(ctx); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", a.Description, err))
			continue
		}
		applied = append(applied, a.Description)
	}

	details := map[string]any{"actions_applied": applied}
	if len(failed) > 0 {
		details["actions_failed"] = failed
	}

	if len(applied) == 0 {
		return Result{
			Compliant: false,
			Message:   res.Message,
			Details:   details,
			Error:     "All actions failed or require manual intervention",
		}
	}

	return Result{
		Compliant: true,
		Fixed:     true,
		Message:   fmt.Sprintf("Applied %d of %d actions", len(applied), len(actions)),
		Details:   details,
	}
}
