package world

import (
	"os"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
)

func loadFixture(t *testing.T) *World {
	t.Helper()
	f, err := os.Open("testdata/universe.yaml")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()
	w, err := Load(f)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return w
}

func TestLoadBuildsDerivedState(t *testing.T) {
	w := loadFixture(t)

	beta, ok := w.System("Beta")
	if !ok {
		t.Fatal("expected Beta system")
	}
	if !beta.HasJump("Alpha") {
		t.Fatal("expected return jump Beta -> Alpha")
	}
	alpha, _ := w.System("Alpha")
	if got := alpha.Jumps[0].Dest(); got != beta {
		t.Fatalf("jump dest = %v, want Beta", got)
	}
	if got := alpha.Presence("Empire"); got != 130 {
		t.Fatalf("Alpha Empire presence = %v, want 130", got)
	}
	if got := beta.Presence("Empire"); got != 110 {
		t.Fatalf("Beta Empire presence = %v, want 110", got)
	}
	if got := len(alpha.Lanes()); got != 1 {
		t.Fatalf("Alpha lanes = %d, want 1", got)
	}
	spob, _ := w.Spob("Alpha Prime")
	if spob.System != "Alpha" {
		t.Fatalf("spob system = %q, want Alpha", spob.System)
	}
	empire, _ := w.Faction("Empire")
	pirate, _ := w.Faction("Pirate")
	if got := empire.Alignment("Pirate"); got != Enemy {
		t.Fatalf("Empire->Pirate = %v, want enemy", got)
	}
	if got := pirate.Alignment("Empire"); got != Enemy {
		t.Fatalf("Pirate->Empire = %v, want enemy", got)
	}
	if got := w.LoadedGraphics(); len(got) != 2 {
		t.Fatalf("graphics = %v, want background and spob", got)
	}
}

func TestLoadRejectsUnknownSpob(t *testing.T) {
	_, err := Load(strings.NewReader("systems:\n  - name: Alpha\n    spobs: [Nowhere]\n"))
	if err == nil {
		t.Fatal("expected error for unknown spob")
	}
}

func TestLoadRejectsConflictingAlignment(t *testing.T) {
	doc := "factions:\n  - name: A\n    allies: [B]\n  - name: B\n    enemies: [A]\n"
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected conflicting alignment error")
	}
}

func TestAddSpobPreconditions(t *testing.T) {
	w := loadFixture(t)
	if err := w.AddSpob("Gamma", "Wanderer"); err != nil {
		t.Fatalf("add spob: %v", err)
	}
	err := w.AddSpob("Beta", "Wanderer")
	if !apperrors.HasCode(err, apperrors.CodeHunkPrecondition) {
		t.Fatalf("re-add code = %v, want precondition", apperrors.CodeOf(err))
	}
	err = w.AddSpob("Nowhere", "Wanderer")
	if !apperrors.HasCode(err, apperrors.CodeTargetNotFound) {
		t.Fatalf("missing system code = %v, want target not found", apperrors.CodeOf(err))
	}
	if err := w.RemoveSpob("Gamma", "Wanderer"); err != nil {
		t.Fatalf("remove spob: %v", err)
	}
	if err := w.RemoveSpob("Gamma", "Wanderer"); !apperrors.HasCode(err, apperrors.CodeHunkPrecondition) {
		t.Fatalf("double remove code = %v, want precondition", apperrors.CodeOf(err))
	}
}

func TestJumpsAreReciprocal(t *testing.T) {
	w := loadFixture(t)
	if err := w.AddJump("Beta", "Gamma"); err != nil {
		t.Fatalf("add jump: %v", err)
	}
	gamma, _ := w.System("Gamma")
	if !gamma.HasJump("Beta") {
		t.Fatal("expected Gamma -> Beta")
	}
	if err := w.AddJump("Gamma", "Beta"); err == nil {
		t.Fatal("expected duplicate jump error")
	}
	if err := w.RemoveJump("Gamma", "Beta"); err != nil {
		t.Fatalf("remove jump: %v", err)
	}
	beta, _ := w.System("Beta")
	if beta.HasJump("Gamma") {
		t.Fatal("expected Beta -> Gamma removed")
	}
	if err := w.AddJump("Gamma", "Gamma"); err == nil {
		t.Fatal("expected self jump error")
	}
}

func TestLinkJumpReportsReturnLink(t *testing.T) {
	w := loadFixture(t)
	if created, err := w.LinkJump("Gamma", "Beta", false); err != nil || created {
		t.Fatalf("one-way link = %v, %v, want false, nil", created, err)
	}
	created, err := w.LinkJump("Beta", "Gamma", true)
	if err != nil {
		t.Fatalf("link jump: %v", err)
	}
	if created {
		t.Fatal("return link already existed")
	}
	removed, err := w.UnlinkJump("Beta", "Gamma", true)
	if err != nil {
		t.Fatalf("unlink jump: %v", err)
	}
	if !removed {
		t.Fatal("expected return link removed")
	}
	if _, err := w.UnlinkJump("Beta", "Gamma", true); !apperrors.HasCode(err, apperrors.CodeHunkPrecondition) {
		t.Fatalf("double unlink code = %v, want precondition", apperrors.CodeOf(err))
	}
}

func TestAsteroidFieldRestoreKeepsIndex(t *testing.T) {
	w := loadFixture(t)
	if err := w.AddAsteroidField("Alpha", DefaultAsteroidField("outer")); err != nil {
		t.Fatalf("add field: %v", err)
	}
	removed, err := w.RemoveAsteroidField("Alpha", "ring")
	if err != nil {
		t.Fatalf("remove field: %v", err)
	}
	if removed.Index != 0 || removed.Field.Density != 0.5 {
		t.Fatalf("removed = %+v, want ring at 0", removed)
	}
	if err := w.RestoreAsteroidField("Alpha", removed); err != nil {
		t.Fatalf("restore: %v", err)
	}
	alpha, _ := w.System("Alpha")
	if alpha.Asteroids[0].Label != "ring" || alpha.Asteroids[0].Types[0] != "iron" {
		t.Fatalf("asteroids = %+v, want ring first with iron", alpha.Asteroids)
	}
	if _, err := w.RemoveAsteroidField("Alpha", "missing"); !apperrors.HasCode(err, apperrors.CodeLabelNotFound) {
		t.Fatalf("missing label code = %v, want label not found", apperrors.CodeOf(err))
	}
}

func TestSetAlignmentIsSymmetric(t *testing.T) {
	w := loadFixture(t)
	prev, err := w.SetAlignment("Dvaered", "Pirate", Enemy)
	if err != nil {
		t.Fatalf("set alignment: %v", err)
	}
	if prev != Neutral {
		t.Fatalf("previous = %v, want neutral", prev)
	}
	pirate, _ := w.Faction("Pirate")
	if got := pirate.Alignment("Dvaered"); got != Enemy {
		t.Fatalf("Pirate->Dvaered = %v, want enemy", got)
	}
	prev, _ = w.SetAlignment("Pirate", "Dvaered", Ally)
	if prev != Enemy {
		t.Fatalf("previous = %v, want enemy", prev)
	}
	dvaered, _ := w.Faction("Dvaered")
	if got := dvaered.Alignment("Pirate"); got != Ally {
		t.Fatalf("Dvaered->Pirate = %v, want ally", got)
	}
	if _, err := w.SetAlignment("Pirate", "Pirate", Ally); err == nil {
		t.Fatal("expected self alignment error")
	}
}

func TestResetPilotNavigationAbortsRemovedJump(t *testing.T) {
	w := loadFixture(t)
	if err := w.RemoveJump("Alpha", "Beta"); err != nil {
		t.Fatalf("remove jump: %v", err)
	}
	if err := w.RemoveSpob("Alpha", "Alpha Prime"); err != nil {
		t.Fatalf("remove spob: %v", err)
	}
	w.ResetPilotNavigation()
	p := w.Pilots()[0]
	if p.NavJump != "" || p.NavSpob != "" {
		t.Fatalf("nav = %q/%q, want cleared", p.NavSpob, p.NavJump)
	}
	if p.Hyperspacing || !p.HyperspaceAborted {
		t.Fatalf("hyperspacing = %v aborted = %v, want aborted", p.Hyperspacing, p.HyperspaceAborted)
	}
}

func TestSafeLanesHonorNoLanes(t *testing.T) {
	w := loadFixture(t)
	alpha, _ := w.System("Alpha")
	alpha.NoLanes = true
	w.RecomputeSafeLanes()
	if got := len(alpha.Lanes()); got != 0 {
		t.Fatalf("lanes = %d, want 0", got)
	}
}

func TestServiceValidation(t *testing.T) {
	w := loadFixture(t)
	if err := w.AddService("Alpha Prime", "casino"); !apperrors.HasCode(err, apperrors.CodePayloadInvalid) {
		t.Fatalf("unknown service code = %v, want payload invalid", apperrors.CodeOf(err))
	}
	if err := w.AddService("Alpha Prime", "land"); !apperrors.HasCode(err, apperrors.CodeHunkPrecondition) {
		t.Fatalf("duplicate service code = %v, want precondition", apperrors.CodeOf(err))
	}
}
