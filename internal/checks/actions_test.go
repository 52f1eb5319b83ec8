package checks

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func failingAction(desc string) Action {
	return Action{Description: desc, Apply: func(context.Context) error { return errors.New("denied") }}
}

func succeedingAction(desc string, applied *[]string) Action {
	return Action{Description: desc, Apply: func(context.Context) error {
		*applied = append(*applied, desc)
		return nil
	}}
}

func TestRemediateAllActionsSucceed(t *testing.T) {
	var applied []string
	res := remediate(context.Background(),
		NonCompliant("drift", []string{"a", "b"}),
		[]Action{succeedingAction("a", &applied), succeedingAction("b", &applied)},
	)

	if !res.Compliant || !res.Fixed {
		t.Fatalf("want compliant+fixed, got %+v", res)
	}
	if len(applied) != 2 {
		t.Fatalf("want 2 actions applied, got %v", applied)
	}
}

func TestRemediatePartialFailureStillFixes(t *testing.T) {
	// One action's failure must not prevent the remaining actions from being
	// attempted, and one success is enough to report fixed.
	var applied []string
	res := remediate(context.Background(),
		NonCompliant("drift", []string{"a", "b", "c"}),
		[]Action{failingAction("a"), succeedingAction("b", &applied), succeedingAction("c", &applied)},
	)

	if !res.Compliant || !res.Fixed {
		t.Fatalf("want compliant+fixed, got %+v", res)
	}
	if len(applied) != 2 {
		t.Fatalf("later actions were not attempted after a failure: %v", applied)
	}
	failed, _ := res.Details["actions_failed"].([]string)
	if len(failed) != 1 {
		t.Fatalf("want 1 failed action recorded, got %v", failed)
	}
	if !strings.Contains(res.Message, "Applied 2 of 3") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestRemediateAllActionsFail(t *testing.T) {
	res := remediate(context.Background(),
		NonCompliant("drift", []string{"a", "b"}),
		[]Action{failingAction("a"), failingAction("b")},
	)

	if res.Compliant || res.Fixed {
		t.Fatalf("want non-compliant, got %+v", res)
	}
	if res.Error != "All actions failed or require manual intervention" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestRemediateNoActionsAndNoneNeeded(t *testing.T) {
	res := remediate(context.Background(), NonCompliant("drift", nil), nil)

	if !res.Compliant || res.Fixed {
		t.Fatalf("want compliant without fixed, got %+v", res)
	}
	if res.Message != "No actions needed to apply" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestRemediateNoApplicableActionsButActionsNeeded(t *testing.T) {
	// A violation the check cannot fix stays a violation.
	orig := NonCompliant("drift", []string{"manual step"})
	res := remediate(context.Background(), orig, nil)

	if res.Compliant {
		t.Fatalf("want non-compliant, got %+v", res)
	}
	if res.Message != orig.Message {
		t.Fatalf("result was rewritten: %+v", res)
	}
}

func TestFixedImpliesCompliant(t *testing.T) {
	var applied []string
	results := []Result{
		remediate(context.Background(), NonCompliant("d", []string{"a"}), []Action{succeedingAction("a", &applied)}),
		remediate(context.Background(), NonCompliant("d", []string{"a"}), []Action{failingAction("a")}),
		remediate(context.Background(), NonCompliant("d", nil), nil),
	}
	for i, res := range results {
		if res.Fixed && !res.Compliant {
			t.Fatalf("result %d violates fixed => compliant: %+v", i, res)
		}
	}
}
