package editor

import (
	"bytes"
	"context"
	"log"
	"slices"
	"strings"
	"testing"

	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/patch"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/recompute"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
)

const universe = `
systems:
  - name: Alpha
    asteroids:
      - label: ring
        density: 0.5
  - name: Beta
techs:
  - name: Basic
    items: [Laser]
`

func newSession(t *testing.T) (*Session, *world.World, *recompute.Coordinator, *bytes.Buffer) {
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
	logs := &bytes.Buffer{}
	s, err := NewSession(d, coord, log.New(logs, "", 0))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, w, coord, logs
}

func posX(v float64) hunk.Hunk {
	return hunk.Hunk{Target: hunk.Target{Kind: hunk.TargetSystem, Name: "Alpha"}, Type: hunk.TypeSystemPosX, Payload: hunk.FloatPayload(v)}
}

func density(label string, v float64) hunk.Hunk {
	h := hunk.Hunk{Target: hunk.Target{Kind: hunk.TargetSystem, Name: "Alpha"}, Type: hunk.TypeAsteroidsDensity, Payload: hunk.FloatPayload(v)}
	h.Attributes = []hunk.Attribute{{Name: hunk.LabelAttribute, Value: label}}
	return h
}

func techAdd(item string) hunk.Hunk {
	return hunk.Hunk{Target: hunk.Target{Kind: hunk.TargetTech, Name: "Basic"}, Type: hunk.TypeTechAdd, Payload: hunk.StringPayload(item)}
}

func TestNewSessionRequiresDependencies(t *testing.T) {
	if _, err := NewSession(nil, recompute.New(nil), nil); err == nil {
		t.Fatal("expected patcher error")
	}
	d, _ := patch.New(world.New(), nil)
	if _, err := NewSession(d, nil, nil); err == nil {
		t.Fatal("expected bracket error")
	}
}

func TestAdmitReplacesSameSlot(t *testing.T) {
	s, w, coord, _ := newSession(t)
	ctx := context.Background()
	for _, v := range []float64{10, 20, 30} {
		if err := s.Admit(ctx, posX(v)); err != nil {
			t.Fatalf("admit %v: %v", v, err)
		}
	}
	alpha, _ := w.System("Alpha")
	if alpha.Pos.X != 30 {
		t.Fatalf("pos x = %v, want 30", alpha.Pos.X)
	}
	if got := len(s.Pending()); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	if got := coord.Runs(); got != 3 {
		t.Fatalf("recomputes = %d, want one per admit", got)
	}
	s.Discard(ctx)
	if alpha.Pos.X != 0 {
		t.Fatalf("pos x after discard = %v, want 0", alpha.Pos.X)
	}
}

func TestAdmitAppendsDifferentSlots(t *testing.T) {
	s, w, _, _ := newSession(t)
	ctx := context.Background()
	if err := s.Admit(ctx, posX(5)); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := s.Admit(ctx, density("ring", 0.9)); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if got := len(s.Pending()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	alpha, _ := w.System("Alpha")
	if alpha.Asteroids[0].Density != 0.9 {
		t.Fatalf("density = %v, want 0.9", alpha.Asteroids[0].Density)
	}
}

func TestAdmitFailureRestoresPrevious(t *testing.T) {
	s, w, _, _ := newSession(t)
	ctx := context.Background()
	if err := s.Admit(ctx, density("ring", 0.8)); err != nil {
		t.Fatalf("admit: %v", err)
	}
	bad := density("ring", 0.1)
	bad.Payload = hunk.StringPayload("dense")
	if err := s.Admit(ctx, bad); err == nil {
		t.Fatal("expected payload error")
	}
	alpha, _ := w.System("Alpha")
	if alpha.Asteroids[0].Density != 0.8 {
		t.Fatalf("density = %v, want 0.8 restored", alpha.Asteroids[0].Density)
	}
	pending := s.Pending()
	if len(pending) != 1 || pending[0].Payload != hunk.FloatPayload(0.8) {
		t.Fatalf("pending = %v, want previous hunk", pending)
	}
}

func TestAdmitFailureWithoutMatchKeepsSession(t *testing.T) {
	s, _, _, _ := newSession(t)
	h := posX(1)
	h.Target.Name = "Nowhere"
	if err := s.Admit(context.Background(), h); err == nil {
		t.Fatal("expected target error")
	}
	if got := len(s.Pending()); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
}

func TestRemoveRevertsOneHunk(t *testing.T) {
	s, w, _, _ := newSession(t)
	ctx := context.Background()
	s.Admit(ctx, posX(5))
	s.Admit(ctx, density("ring", 0.9))
	if err := s.Remove(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	alpha, _ := w.System("Alpha")
	if alpha.Pos.X != 0 || alpha.Asteroids[0].Density != 0.9 {
		t.Fatalf("pos x = %v density = %v, want 0 and 0.9", alpha.Pos.X, alpha.Asteroids[0].Density)
	}
	if err := s.Remove(ctx, 5); err != ErrIndexOutOfRange {
		t.Fatalf("err = %v, want %v", err, ErrIndexOutOfRange)
	}
}

func TestExportKeepsOrder(t *testing.T) {
	s, _, _, _ := newSession(t)
	ctx := context.Background()
	s.Admit(ctx, posX(5))
	s.Admit(ctx, density("ring", 0.9))
	s.Admit(ctx, posX(6))
	def := s.Export("edited")
	if def.Name() != "edited" {
		t.Fatalf("name = %q, want edited", def.Name())
	}
	var types []hunk.Type
	for _, h := range def.Hunks() {
		if h.Old != nil {
			t.Fatal("expected exported hunks without captured values")
		}
		types = append(types, h.Type)
	}
	if !slices.Equal(types, []hunk.Type{hunk.TypeSystemPosX, hunk.TypeAsteroidsDensity}) {
		t.Fatalf("types = %v, want pos_x then density", types)
	}
}

func TestAdmitKeepsDistinctStructuralEntries(t *testing.T) {
	s, w, _, _ := newSession(t)
	ctx := context.Background()
	for _, item := range []string{"Railgun", "Mass Driver"} {
		if err := s.Admit(ctx, techAdd(item)); err != nil {
			t.Fatalf("admit %s: %v", item, err)
		}
	}
	if got := len(s.Pending()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	basic, _ := w.TechGroup("Basic")
	if want := []string{"Laser", "Railgun", "Mass Driver"}; !slices.Equal(basic.Items, want) {
		t.Fatalf("items = %v, want %v", basic.Items, want)
	}
}
