package diff

import (
	"bytes"
	"context"
	"log"
	"reflect"
	"slices"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/patch"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/recompute"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
)

const universe = `
factions:
  - name: Empire
spobs:
  - name: Prime
    faction: Empire
systems:
  - name: SystemX
    spobs: [Prime]
  - name: SystemY
  - name: SystemZ
`

type harness struct {
	world *world.World
	coord *recompute.Coordinator
	ctx   *Context
	logs  *bytes.Buffer
	cat   *Catalog
}

func newHarness(t *testing.T, defs ...*Definition) *harness {
	t.Helper()
	w, err := world.Load(strings.NewReader(universe))
	if err != nil {
		t.Fatalf("load world: %v", err)
	}
	coord := recompute.New(w)
	d, err := patch.New(w, coord)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	cat := NewCatalog()
	for _, def := range defs {
		if err := cat.Register(def); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	logs := &bytes.Buffer{}
	ctx, err := NewContext(cat, d, coord, WithLogger(log.New(logs, "", 0)))
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	return &harness{world: w, coord: coord, ctx: ctx, logs: logs, cat: cat}
}

func sys(t hunk.Type, name string, p hunk.Payload) hunk.Hunk {
	return hunk.Hunk{Target: hunk.Target{Kind: hunk.TargetSystem, Name: name}, Type: t, Payload: p}
}

func system(t *testing.T, w *world.World, name string) *world.System {
	t.Helper()
	s, ok := w.System(name)
	if !ok {
		t.Fatalf("missing system %s", name)
	}
	return s
}

func TestNewContextRequiresDependencies(t *testing.T) {
	coord := recompute.New(nil)
	if _, err := NewContext(nil, nil, coord); err != ErrCatalogRequired {
		t.Fatalf("err = %v, want %v", err, ErrCatalogRequired)
	}
	if _, err := NewContext(NewCatalog(), nil, coord); err != ErrPatcherRequired {
		t.Fatalf("err = %v, want %v", err, ErrPatcherRequired)
	}
	w := world.New()
	d, _ := patch.New(w, nil)
	if _, err := NewContext(NewCatalog(), d, nil); err != ErrBracketRequired {
		t.Fatalf("err = %v, want %v", err, ErrBracketRequired)
	}
}

func TestOpenGateScenario(t *testing.T) {
	gate := NewDefinition("open_gate", "", []hunk.Hunk{sys(hunk.TypeJumpAdd, "SystemX", hunk.StringPayload("SystemY"))})
	h := newHarness(t, gate)
	x, y := system(t, h.world, "SystemX"), system(t, h.world, "SystemY")
	if x.HasJump("SystemY") || y.HasJump("SystemX") {
		t.Fatal("expected no jump before apply")
	}
	if _, err := h.ctx.Apply(context.Background(), "open_gate"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !x.HasJump("SystemY") || !y.HasJump("SystemX") {
		t.Fatal("expected reciprocal jump after apply")
	}
	if err := h.ctx.Remove(context.Background(), "open_gate"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if x.HasJump("SystemY") || y.HasJump("SystemX") {
		t.Fatal("expected no jump after remove")
	}
	if h.ctx.IsApplied("open_gate") {
		t.Fatal("expected open_gate unapplied")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	def := NewDefinition("tag", "", []hunk.Hunk{sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("frontier"))})
	h := newHarness(t, def)
	if _, err := h.ctx.Apply(context.Background(), "tag"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	res, err := h.ctx.Apply(context.Background(), "tag")
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !res.AlreadyApplied {
		t.Fatal("expected second apply to be a no-op")
	}
	if got := system(t, h.world, "SystemX").Tags; !slices.Equal(got, []string{"frontier"}) {
		t.Fatalf("tags = %v, want [frontier]", got)
	}
	if got := h.ctx.Applied(); !slices.Equal(got, []string{"tag"}) {
		t.Fatalf("applied = %v, want [tag]", got)
	}
}

func TestPartialFailureStillApplied(t *testing.T) {
	def := NewDefinition("partial", "", []hunk.Hunk{
		sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("h1")),
		sys(hunk.TypeSystemTagAdd, "Nowhere", hunk.StringPayload("h2")),
		sys(hunk.TypeSystemTagAdd, "SystemY", hunk.StringPayload("h3")),
	})
	h := newHarness(t, def)
	res, err := h.ctx.Apply(context.Background(), "partial")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Applied != 2 || len(res.Failed) != 1 {
		t.Fatalf("applied = %d failed = %d, want 2 and 1", res.Applied, len(res.Failed))
	}
	if !h.ctx.IsApplied("partial") {
		t.Fatal("expected partial diff applied")
	}
	inst, _ := h.ctx.Instance("partial")
	applied := inst.Applied()
	if applied[0].Payload != hunk.StringPayload("h1") || applied[1].Payload != hunk.StringPayload("h3") {
		t.Fatalf("applied = %v, want h1 then h3", applied)
	}
	failed := inst.Failed()
	if failed[0].Hunk.Target.Name != "Nowhere" || !apperrors.HasCode(failed[0].Err, apperrors.CodeTargetNotFound) {
		t.Fatalf("failed = %+v, want Nowhere target not found", failed[0])
	}
	logs := h.logs.String()
	if !strings.Contains(logs, "unidiff 'partial' failed to apply 1 hunk\n") {
		t.Fatalf("logs = %q, want failure summary", logs)
	}
	if !strings.Contains(logs, "   [Nowhere] add system tag: 'h2'") {
		t.Fatalf("logs = %q, want failed hunk line", logs)
	}
}

func TestRemoveOnlyRevertsOwnHunks(t *testing.T) {
	a := NewDefinition("A", "", []hunk.Hunk{
		sys(hunk.TypeSystemBackground, "SystemX", hunk.StringPayload("bg/a")),
		sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("a")),
	})
	b := NewDefinition("B", "", []hunk.Hunk{
		sys(hunk.TypeSystemBackground, "SystemY", hunk.StringPayload("bg/b")),
		sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("b")),
	})
	h := newHarness(t, a, b)
	ctx := context.Background()
	for _, name := range []string{"A", "B"} {
		if _, err := h.ctx.Apply(ctx, name); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}
	if err := h.ctx.Remove(ctx, "A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	x, y := system(t, h.world, "SystemX"), system(t, h.world, "SystemY")
	if x.Background != "" {
		t.Fatalf("SystemX background = %q, want empty", x.Background)
	}
	if y.Background != "bg/b" {
		t.Fatalf("SystemY background = %q, want bg/b", y.Background)
	}
	if !slices.Equal(x.Tags, []string{"b"}) {
		t.Fatalf("SystemX tags = %v, want [b]", x.Tags)
	}
	if got := h.ctx.Applied(); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("applied = %v, want [B]", got)
	}
}

func TestRemoveRevertsInReverseOrder(t *testing.T) {
	def := NewDefinition("chain", "", []hunk.Hunk{
		sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(10)),
		sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(20)),
	})
	h := newHarness(t, def)
	ctx := context.Background()
	if _, err := h.ctx.Apply(ctx, "chain"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	x := system(t, h.world, "SystemX")
	if x.Pos.X != 20 {
		t.Fatalf("pos x = %v, want 20", x.Pos.X)
	}
	if err := h.ctx.Remove(ctx, "chain"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if x.Pos.X != 0 {
		t.Fatalf("pos x = %v, want 0", x.Pos.X)
	}
}

func TestOverlappingDiffsLastWriterWins(t *testing.T) {
	a := NewDefinition("A", "", []hunk.Hunk{sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(1))})
	b := NewDefinition("B", "", []hunk.Hunk{sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(2))})
	h := newHarness(t, a, b)
	ctx := context.Background()
	h.ctx.Apply(ctx, "A")
	h.ctx.Apply(ctx, "B")
	x := system(t, h.world, "SystemX")
	if x.Pos.X != 2 {
		t.Fatalf("pos x = %v, want 2", x.Pos.X)
	}
	if err := h.ctx.Remove(ctx, "A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if x.Pos.X != 0 {
		t.Fatalf("pos x = %v, want A's captured 0", x.Pos.X)
	}
}

func TestBatchRunsRecomputeOnce(t *testing.T) {
	build := func() *harness {
		a := NewDefinition("A", "", []hunk.Hunk{sys(hunk.TypeJumpAdd, "SystemX", hunk.StringPayload("SystemY"))})
		b := NewDefinition("B", "", []hunk.Hunk{sys(hunk.TypeJumpAdd, "SystemY", hunk.StringPayload("SystemZ"))})
		return newHarness(t, a, b)
	}
	ctx := context.Background()

	separate := build()
	separate.ctx.Apply(ctx, "A")
	separate.ctx.Apply(ctx, "B")
	if got := separate.coord.Runs(); got != 2 {
		t.Fatalf("separate runs = %d, want 2", got)
	}

	batched := build()
	batched.ctx.Start()
	batched.ctx.Apply(ctx, "A")
	batched.ctx.Apply(ctx, "B")
	if got := batched.coord.Runs(); got != 0 {
		t.Fatalf("runs inside bracket = %d, want 0", got)
	}
	if !batched.ctx.End(ctx) {
		t.Fatal("expected End to recompute")
	}
	if got := batched.coord.Runs(); got != 1 {
		t.Fatalf("batched runs = %d, want 1", got)
	}
	for _, name := range []string{"SystemX", "SystemY", "SystemZ"} {
		a, b := system(t, separate.world, name), system(t, batched.world, name)
		if !slices.Equal(a.JumpTargets(), b.JumpTargets()) {
			t.Fatalf("%s jumps = %v, want %v", name, b.JumpTargets(), a.JumpTargets())
		}
		if !reflect.DeepEqual(a.Presences(), b.Presences()) {
			t.Fatalf("%s presence = %v, want %v", name, b.Presences(), a.Presences())
		}
	}
}

func TestClearRevertsMostRecentFirst(t *testing.T) {
	a := NewDefinition("A", "", []hunk.Hunk{sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(1))})
	b := NewDefinition("B", "", []hunk.Hunk{sys(hunk.TypeSystemPosX, "SystemX", hunk.FloatPayload(2))})
	h := newHarness(t, a, b)
	ctx := context.Background()
	h.ctx.Apply(ctx, "A")
	h.ctx.Apply(ctx, "B")
	h.ctx.Clear(ctx)
	if got := system(t, h.world, "SystemX").Pos.X; got != 0 {
		t.Fatalf("pos x = %v, want 0", got)
	}
	if got := h.ctx.Applied(); len(got) != 0 {
		t.Fatalf("applied = %v, want empty", got)
	}
}

func TestApplyUnknownDiff(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctx.Apply(context.Background(), "missing")
	if !apperrors.HasCode(err, apperrors.CodeDiffNotFound) {
		t.Fatalf("code = %v, want diff not found", apperrors.CodeOf(err))
	}
	if h.ctx.IsApplied("missing") {
		t.Fatal("expected unknown diff unapplied")
	}
}

func TestRemoveUnappliedDiff(t *testing.T) {
	h := newHarness(t)
	err := h.ctx.Remove(context.Background(), "missing")
	if !apperrors.HasCode(err, apperrors.CodeDiffNotApplied) {
		t.Fatalf("code = %v, want diff not applied", apperrors.CodeOf(err))
	}
}

func TestRevertFailureContinues(t *testing.T) {
	def := NewDefinition("both", "", []hunk.Hunk{
		sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("one")),
		sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("two")),
	})
	h := newHarness(t, def)
	ctx := context.Background()
	h.ctx.Apply(ctx, "both")
	x := system(t, h.world, "SystemX")
	x.Tags = []string{"one"}
	if err := h.ctx.Remove(ctx, "both"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(x.Tags) != 0 {
		t.Fatalf("tags = %v, want empty", x.Tags)
	}
	if !strings.Contains(h.logs.String(), "failed to revert") {
		t.Fatalf("logs = %q, want revert warning", h.logs.String())
	}
}

func TestLoadUsesUpdaterAndOneRecompute(t *testing.T) {
	gate := NewDefinition("open_gate", "", []hunk.Hunk{sys(hunk.TypeJumpAdd, "SystemX", hunk.StringPayload("SystemY"))})
	tag := NewDefinition("tag", "", []hunk.Hunk{sys(hunk.TypeSystemTagAdd, "SystemZ", hunk.StringPayload("t"))})
	h := newHarness(t, gate, tag)
	h.ctx.updater = UpdaterFunc(func(_ context.Context, name string) (string, bool, error) {
		switch name {
		case "old_gate":
			return "open_gate", true, nil
		case "retired":
			return "", true, nil
		}
		return "", false, nil
	})
	ctx := context.Background()
	h.ctx.Apply(ctx, "tag")
	runs := h.coord.Runs()

	err := h.ctx.Load(ctx, []string{"old_gate", "retired", "", "unknown", "tag"})
	if !apperrors.HasCode(err, apperrors.CodeDiffNotFound) {
		t.Fatalf("code = %v, want diff not found for unknown", apperrors.CodeOf(err))
	}
	if got := h.ctx.Applied(); !slices.Equal(got, []string{"open_gate", "tag"}) {
		t.Fatalf("applied = %v, want [open_gate tag]", got)
	}
	if got := h.coord.Runs() - runs; got != 1 {
		t.Fatalf("recomputes = %d, want 1", got)
	}
}

func TestCatalogLoadsLazily(t *testing.T) {
	cat := NewCatalog()
	calls := 0
	err := cat.Add("lazy", "lazy.xml", func() (*Definition, error) {
		calls++
		return NewDefinition("lazy", "lazy.xml", nil), nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 before lookup", calls)
	}
	for range 2 {
		if _, err := cat.Definition("lazy"); err != nil {
			t.Fatalf("definition: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if err := cat.Add("lazy", "other.xml", func() (*Definition, error) { return nil, nil }); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestCatalogRejectsRenamedDocument(t *testing.T) {
	cat := NewCatalog()
	cat.Add("a", "a.xml", func() (*Definition, error) { return NewDefinition("b", "a.xml", nil), nil })
	if _, err := cat.Definition("a"); !apperrors.HasCode(err, apperrors.CodeParseInvalid) {
		t.Fatalf("code = %v, want parse invalid", apperrors.CodeOf(err))
	}
}

func TestDefinitionIsImmutable(t *testing.T) {
	hunks := []hunk.Hunk{sys(hunk.TypeSystemTagAdd, "SystemX", hunk.StringPayload("a"))}
	def := NewDefinition("d", "", hunks)
	hunks[0].Payload = hunk.StringPayload("changed")
	got := def.Hunks()
	got[0].Payload = hunk.StringPayload("changed again")
	if def.Hunks()[0].Payload != hunk.StringPayload("a") {
		t.Fatal("expected definition to own its hunks")
	}
}
