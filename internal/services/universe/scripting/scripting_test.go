package scripting

import (
	"context"
	"slices"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
)

type fakeDiffs struct {
	applied []string
	calls   []string
	fail    error
}

func (f *fakeDiffs) Apply(_ context.Context, name string) (diff.Result, error) {
	f.calls = append(f.calls, "apply "+name)
	if !slices.Contains(f.applied, name) {
		f.applied = append(f.applied, name)
	}
	return diff.Result{Name: name}, nil
}

func (f *fakeDiffs) Remove(_ context.Context, name string) error {
	f.calls = append(f.calls, "remove "+name)
	if f.fail != nil {
		return f.fail
	}
	i := slices.Index(f.applied, name)
	if i < 0 {
		return apperrors.New(apperrors.CodeDiffNotApplied, "diff not applied")
	}
	f.applied = slices.Delete(f.applied, i, i+1)
	return nil
}

func (f *fakeDiffs) IsApplied(name string) bool {
	return slices.Contains(f.applied, name)
}

func TestScriptDrivesDiffs(t *testing.T) {
	diffs := &fakeDiffs{}
	src := `
diff.apply("a")
diff.apply("b")
assert(diff.isApplied("a"))
diff.remove("a")
assert(not diff.isApplied("a"))
assert(diff.isApplied("b"))
`
	if err := RunString(context.Background(), diffs, src, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := []string{"apply a", "apply b", "remove a"}; !slices.Equal(diffs.calls, want) {
		t.Fatalf("calls = %v, want %v", diffs.calls, want)
	}
}

func TestReadonlyLibraryOnlyQueries(t *testing.T) {
	diffs := &fakeDiffs{applied: []string{"a"}}
	src := `
assert(diff.isApplied("a"))
assert(diff.apply == nil)
assert(diff.remove == nil)
`
	if err := RunString(context.Background(), diffs, src, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := RunString(context.Background(), diffs, `diff.apply("b")`, true); err == nil {
		t.Fatal("expected read-only apply to fail")
	}
	if len(diffs.calls) != 0 {
		t.Fatalf("calls = %v, want none", diffs.calls)
	}
}

func TestRemoveUnappliedIsSilent(t *testing.T) {
	if err := RunString(context.Background(), &fakeDiffs{}, `diff.remove("never")`, false); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRemoveOtherErrorsRaise(t *testing.T) {
	diffs := &fakeDiffs{fail: apperrors.New(apperrors.CodeUnknown, "boom")}
	err := RunString(context.Background(), diffs, `diff.remove("x")`, false)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestArgumentMustBeString(t *testing.T) {
	if err := RunString(context.Background(), &fakeDiffs{}, `diff.isApplied({})`, false); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestRunFile(t *testing.T) {
	diffs := &fakeDiffs{}
	if err := RunFile(context.Background(), diffs, "testdata/campaign.lua"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := []string{"apply open_gate", "remove frontier"}; !slices.Equal(diffs.calls, want) {
		t.Fatalf("calls = %v, want %v", diffs.calls, want)
	}
}

func TestLoadUpdater(t *testing.T) {
	u, err := LoadUpdater("testdata/updater.lua")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if u.Len() != 2 {
		t.Fatalf("entries = %d, want 2", u.Len())
	}
	ctx := context.Background()
	if got, ok, _ := u.Update(ctx, "Old Gate"); !ok || got != "open_gate" {
		t.Fatalf("Old Gate = %q, %v, want open_gate", got, ok)
	}
	if got, ok, _ := u.Update(ctx, "Retired Event"); !ok || got != "" {
		t.Fatalf("Retired Event = %q, %v, want dropped", got, ok)
	}
	if _, ok, _ := u.Update(ctx, "Unknown"); ok {
		t.Fatal("expected unknown name to have no entry")
	}
}

func TestParseUpdaterRejectsBadShapes(t *testing.T) {
	tests := []string{
		`return 5`,
		`return { [1] = "x" }`,
		`return { a = true }`,
		`return { a = 3 }`,
		`error("boom")`,
		`return {`,
	}
	for _, src := range tests {
		if _, err := ParseUpdater(src); err == nil {
			t.Fatalf("ParseUpdater(%q) expected error", src)
		}
	}
}

func TestNilUpdater(t *testing.T) {
	var u *Updater
	if _, ok, err := u.Update(context.Background(), "x"); ok || err != nil {
		t.Fatalf("nil updater = %v, %v, want no entry", ok, err)
	}
}

func TestUpdaterSatisfiesDiffUpdater(t *testing.T) {
	var _ diff.Updater = (*Updater)(nil)
}
