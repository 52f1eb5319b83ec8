package checks

import "testing"

func TestAllReturnsChecksInRegistrationOrder(t *testing.T) {
	want := []string{
		"merge-methods",
		"branch-protection",
		"team-permissions",
		"security-scanning",
		"archived-repos",
		"repository-settings",
	}
	all := All()
	if len(all) != len(want) {
		t.Fatalf("want %d checks, got %d", len(want), len(all))
	}
	for i, c := range all {
		if c.Name() != want[i] {
			t.Fatalf("check %d: want %s, got %s", i, want[i], c.Name())
		}
	}
}

func TestSelectPreservesRegistrationOrder(t *testing.T) {
	selected, err := Select([]string{"archived-repos", "merge-methods"})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("want 2 checks, got %d", len(selected))
	}
	if selected[0].Name() != "merge-methods" || selected[1].Name() != "archived-repos" {
		t.Fatalf("selection must preserve registration order, got %s, %s", selected[0].Name(), selected[1].Name())
	}
}

func TestSelectUnknownCheck(t *testing.T) {
	if _, err := Select([]string{"no-such-check"}); err == nil {
		t.Fatal("want error for unknown check name")
	}
}

func TestSelectEmptySelectsAll(t *testing.T) {
	selected, err := Select(nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(selected) != len(All()) {
		t.Fatalf("empty selection must return all checks")
	}
}

func TestAllReturnsACopy(t *testing.T) {
	a := All()
	a[0] = nil
	if All()[0] == nil {
		t.Fatal("All must not expose the registry slice")
	}
}
